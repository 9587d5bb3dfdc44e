package auditflag

import (
	"context"
	"time"

	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

type Repository interface {
	// FlagAuditBatch flags up to limit unflagged rows in id order and returns
	// how many it touched. Rows that already carry flag_written_at are skipped.
	FlagAuditBatch(ctx context.Context, cutover, now time.Time, limit int) (int, error)
	CountAuditFlags(ctx context.Context) (models.AuditFlagCounts, error)
	ListFlagged(ctx context.Context, oldRule bool, limit, offset int) ([]*models.AuditLogEntry, error)
}

type Config struct {
	// Cutover is when free distance was retired. Quotes computed before it
	// are flagged computed_under_old_free_distance.
	Cutover          time.Time
	BatchSize        int
	BatchesPerSecond float64
}

type Result struct {
	Batches int
	Rows    int
}

// Migrator is a one-shot backfill of the audit flag. Re-running it is safe:
// flagged rows are never rewritten.
type Migrator struct {
	repo    Repository
	cfg     Config
	limiter *rate.Limiter
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(repo Repository, cfg Config) *Migrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	limit := rate.Inf
	if cfg.BatchesPerSecond > 0 {
		limit = rate.Limit(cfg.BatchesPerSecond)
	}
	return &Migrator{
		repo:    repo,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Migrator) WithMetrics(mt *metrics.Metrics) *Migrator {
	m.metrics = mt
	return m
}

func (m *Migrator) WithClock(now func() time.Time) *Migrator {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *Migrator) Run(ctx context.Context) (Result, error) {
	if m.cfg.Cutover.IsZero() {
		return Result{}, errors.New("cutover time is required")
	}
	log := logger.WithContext(ctx)

	var res Result
	for {
		if err := m.limiter.Wait(ctx); err != nil {
			return res, errors.Wrap(err, "wait batch slot")
		}
		n, err := m.repo.FlagAuditBatch(ctx, m.cfg.Cutover, m.now(), m.cfg.BatchSize)
		if err != nil {
			return res, errors.Wrapf(err, "flag batch %d", res.Batches+1)
		}
		res.Batches++
		res.Rows += n
		if m.metrics != nil {
			m.metrics.AuditRowsFlagged.Add(float64(n))
		}
		log.Debug().Int("batch", res.Batches).Int("rows", n).Msg("audit batch flagged")

		if n < m.cfg.BatchSize {
			break
		}
	}

	log.Info().Int("batches", res.Batches).Int("rows", res.Rows).
		Time("cutover", m.cfg.Cutover).Msg("audit flag migration finished")
	return res, nil
}

func (m *Migrator) Summary(ctx context.Context) (models.AuditFlagCounts, error) {
	c, err := m.repo.CountAuditFlags(ctx)
	if err != nil {
		return c, errors.Wrap(err, "count audit flags")
	}
	return c, nil
}

// Flagged lists audit rows for historical reporting.
func (m *Migrator) Flagged(ctx context.Context, oldRule bool, limit, offset int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	out, err := m.repo.ListFlagged(ctx, oldRule, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list flagged audit rows")
	}
	return out, nil
}
