package zoneadmin

import (
	"context"
	"time"

	"github.com/BearBump/QuoteBox/internal/broker/messages"
	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	ListZones(ctx context.Context) ([]*models.DeliveryZone, error)
	// SetZoneSuspended flips the flag and bumps Version in one statement.
	// Unknown codes yield *models.ZoneNotFoundError.
	SetZoneSuspended(ctx context.Context, code string, suspended bool, at time.Time) (*models.DeliveryZone, error)
	UpsertZones(ctx context.Context, zones []models.DeliveryZone, at time.Time) ([]*models.DeliveryZone, error)
	ListCrossZoneFees(ctx context.Context) ([]models.CrossZoneFee, error)
	UpsertCrossZoneFee(ctx context.Context, f models.CrossZoneFee) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type Service struct {
	repo Repository

	pub   Publisher
	topic string

	metrics *metrics.Metrics
	now     func() time.Time
}

func New(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) WithPublisher(p Publisher, topic string) *Service {
	s.pub = p
	s.topic = topic
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) ListZones(ctx context.Context) ([]*models.DeliveryZone, error) {
	zones, err := s.repo.ListZones(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list zones")
	}
	return zones, nil
}

// SuspendZone makes every later quote touching the zone fail with
// ZoneSuspendedError.
func (s *Service) SuspendZone(ctx context.Context, code string) (*models.DeliveryZone, error) {
	return s.toggle(ctx, "suspend", code, true)
}

func (s *Service) ResumeZone(ctx context.Context, code string) (*models.DeliveryZone, error) {
	return s.toggle(ctx, "resume", code, false)
}

func (s *Service) toggle(ctx context.Context, op, code string, suspended bool) (*models.DeliveryZone, error) {
	if code == "" {
		return nil, errors.New("zone code is required")
	}
	z, err := s.repo.SetZoneSuspended(ctx, code, suspended, s.now())
	s.count(op, err)
	if err != nil {
		var nf *models.ZoneNotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "%s zone %s", op, code)
	}

	logger.WithContext(ctx).Info().
		Str("zone", z.Code).
		Bool("suspended", z.IsSuspended).
		Int64("version", z.Version).
		Msg("zone " + op)

	change := messages.ZoneResumed
	if suspended {
		change = messages.ZoneSuspended
	}
	s.publish(ctx, z, change)
	return z, nil
}

// ImportZones validates every record and upserts them by code in one
// transaction. Existing zones keep CreatedAt and their suspension flag.
func (s *Service) ImportZones(ctx context.Context, records []models.ZoneImportRecord) ([]*models.DeliveryZone, error) {
	if err := ValidateRecords(records); err != nil {
		s.count("import", err)
		return nil, err
	}

	zones := make([]models.DeliveryZone, 0, len(records))
	for _, r := range records {
		z := r.ToZone()
		if z.AreaType == "" {
			z.AreaType = models.AreaUrban
		}
		z.FreeDistanceKm = 0
		zones = append(zones, z)
	}

	out, err := s.repo.UpsertZones(ctx, zones, s.now())
	s.count("import", err)
	if err != nil {
		return nil, errors.Wrap(err, "import zones")
	}

	logger.WithContext(ctx).Info().Int("zones", len(out)).Msg("zones imported")
	for _, z := range out {
		s.publish(ctx, z, messages.ZoneImported)
	}
	return out, nil
}

func (s *Service) ListCrossZoneFees(ctx context.Context) ([]models.CrossZoneFee, error) {
	fees, err := s.repo.ListCrossZoneFees(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list cross-zone fees")
	}
	return fees, nil
}

// SetCrossZoneFee stores the surcharge for an unordered zone pair. The next
// quote for that pair picks it up.
func (s *Service) SetCrossZoneFee(ctx context.Context, f models.CrossZoneFee) error {
	switch {
	case f.ZoneA == "" || f.ZoneB == "":
		return &ValidationError{Code: f.ZoneA, Reason: "both zone codes are required"}
	case f.ZoneA == f.ZoneB:
		return &ValidationError{Code: f.ZoneA, Reason: "cross-zone fee needs two different zones"}
	case f.Fee < 0:
		return &ValidationError{Code: f.ZoneA, Reason: "fee must not be negative"}
	}

	err := s.repo.UpsertCrossZoneFee(ctx, f)
	s.count("cross_zone_fee", err)
	if err != nil {
		return errors.Wrapf(err, "set cross-zone fee %s/%s", f.ZoneA, f.ZoneB)
	}
	logger.WithContext(ctx).Info().
		Str("zone_a", f.ZoneA).Str("zone_b", f.ZoneB).Int64("fee", f.Fee).
		Msg("cross-zone fee set")
	return nil
}

func (s *Service) publish(ctx context.Context, z *models.DeliveryZone, change string) {
	if s.pub == nil || s.topic == "" {
		return
	}
	ev := messages.ZoneChanged{Code: z.Code, Change: change, Version: z.Version, ChangedAt: z.UpdatedAt}
	if err := s.pub.PublishJSON(ctx, s.topic, z.Code, ev); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("zone", z.Code).Msg("zone event not published")
	}
}

func (s *Service) count(op string, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.ZoneAdminOps.WithLabelValues(op, status).Inc()
}
