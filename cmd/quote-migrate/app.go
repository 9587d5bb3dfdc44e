package main

import (
	"context"
	"fmt"
	"io"

	"github.com/BearBump/QuoteBox/config"
	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/auditflag"
	"github.com/BearBump/QuoteBox/internal/storage/pgquote"
	"github.com/goccy/go-json"
)

const (
	modeRun    = "run"
	modeReport = "report"
)

type migrateFactories struct {
	newStorage func(ctx context.Context, cfg *config.Config) (repo auditflag.Repository, closeFn func(), err error)
}

func defaultMigrateFactories() migrateFactories {
	return migrateFactories{
		newStorage: func(ctx context.Context, cfg *config.Config) (auditflag.Repository, func(), error) {
			st, err := pgquote.New(ctx, cfg.Database.DSN())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
	}
}

type migrateReport struct {
	Mode    string                  `json:"mode"`
	Batches int                     `json:"batches,omitempty"`
	Rows    int                     `json:"rows,omitempty"`
	Counts  models.AuditFlagCounts  `json:"counts"`
	Flagged []*models.AuditLogEntry `json:"flagged,omitempty"`
}

// RunQuoteMigrate flags historical audit rows ("run") or only reports the
// current split ("report"). The result is written to out as JSON.
func RunQuoteMigrate(ctx context.Context, cfg *config.Config, f migrateFactories, mode string, out io.Writer) error {
	if mode == "" {
		mode = modeRun
	}
	if mode != modeRun && mode != modeReport {
		return fmt.Errorf("unknown mode %q", mode)
	}

	cutover, err := cfg.Audit.Cutover()
	if err != nil {
		return err
	}

	repo, closeFn, err := f.newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	m := auditflag.New(repo, auditflag.Config{
		Cutover:          cutover,
		BatchSize:        cfg.Audit.BatchSize,
		BatchesPerSecond: cfg.Audit.BatchesPerSecond,
	}).WithMetrics(metrics.New("quotebox"))

	rep := migrateReport{Mode: mode}
	if mode == modeRun {
		res, err := m.Run(ctx)
		if err != nil {
			return err
		}
		rep.Batches, rep.Rows = res.Batches, res.Rows
	} else {
		if rep.Flagged, err = m.Flagged(ctx, true, 100, 0); err != nil {
			return err
		}
	}

	if rep.Counts, err = m.Summary(ctx); err != nil {
		return err
	}
	logger.WithContext(ctx).Info().
		Int64("old_free_distance", rep.Counts.OldFreeDistance).
		Int64("current_rules", rep.Counts.CurrentRules).
		Int64("pending", rep.Counts.Pending).
		Msg("audit flag summary")

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
