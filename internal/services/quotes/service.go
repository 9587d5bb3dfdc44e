package quotes

import (
	"context"
	"time"

	"github.com/BearBump/QuoteBox/internal/broker/messages"
	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/metrics"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/eta"
	"github.com/BearBump/QuoteBox/internal/services/pricing"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type ZoneStore interface {
	ListZones(ctx context.Context) ([]*models.DeliveryZone, error)
	ListCrossZoneFees(ctx context.Context) ([]models.CrossZoneFee, error)
}

type AuditStore interface {
	InsertAudit(ctx context.Context, e *models.AuditLogEntry) error
}

type RiderSource interface {
	Snapshot(ctx context.Context, zoneCode string) (models.RiderSnapshot, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type Service struct {
	zones  ZoneStore
	audit  AuditStore
	riders RiderSource

	pub   Publisher
	topic string

	pricing *pricing.Engine
	eta     *eta.Estimator
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func New(zones ZoneStore, audit AuditStore, pricingCfg pricing.Config, etaCfg eta.Config) *Service {
	return &Service{
		zones:   zones,
		audit:   audit,
		pricing: pricing.New(pricingCfg),
		eta:     eta.New(etaCfg),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *Service) WithRiders(r RiderSource) *Service {
	s.riders = r
	return s
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

func (s *Service) WithIDs(newID func() string) *Service {
	if newID != nil {
		s.newID = newID
	}
	return s
}

// ComputeQuote prices the cart, writes the audit record and publishes
// quote.computed. Audit and event failures never fail the quote. The audit
// record keeps the request as computed, with the resolved time and rider
// snapshots, so it replays to the same quote.
func (s *Service) ComputeQuote(ctx context.Context, req models.DeliveryQuoteRequest) (*models.Quote, error) {
	log := logger.WithContext(ctx).With().Str("cart_id", req.CartID).Logger()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		s.observe(err, 0)
		return nil, err
	}

	q, effective, err := s.compute(ctx, req, snap, s.pricing, s.eta)
	s.observe(err, shipmentCount(q))
	if err != nil {
		var cfgErr *models.ConfigurationMissingError
		if errors.As(err, &cfgErr) {
			log.Error().Err(err).Str("zone", cfgErr.ZoneCode).Msg("zone configuration missing")
		}
		return nil, err
	}

	s.writeAudit(ctx, effective, q)
	s.publish(ctx, q)

	log.Debug().Str("quote_id", q.QuoteID).Int64("grand_total_ngn", q.GrandTotalNGN).Msg("quote computed")
	return q, nil
}

// LegacyFlatFee is the fallback for callers that only know the subtotal.
func (s *Service) LegacyFlatFee(subtotal int64) int64 {
	return s.pricing.LegacyFlatFee(subtotal)
}

func (s *Service) PricingConfig() pricing.Config { return s.pricing.Config() }

func (s *Service) ETAConfig() eta.Config { return s.eta.Config() }

func (s *Service) loadSnapshot(ctx context.Context) (snapshot, error) {
	zones, err := s.zones.ListZones(ctx)
	if err != nil {
		return snapshot{}, errors.Wrap(err, "load zones")
	}
	fees, err := s.zones.ListCrossZoneFees(ctx)
	if err != nil {
		return snapshot{}, errors.Wrap(err, "load cross-zone fees")
	}
	return snapshot{zones: zones, crossFees: fees}, nil
}

func (s *Service) writeAudit(ctx context.Context, req models.DeliveryQuoteRequest, q *models.Quote) {
	if s.audit == nil {
		return
	}
	log := logger.WithContext(ctx)

	reqJSON, err := json.Marshal(req)
	if err == nil {
		var quoteJSON []byte
		quoteJSON, err = json.Marshal(q)
		if err == nil {
			err = s.audit.InsertAudit(ctx, &models.AuditLogEntry{
				ID:            s.newID(),
				QuoteID:       q.QuoteID,
				CartID:        q.CartID,
				Request:       reqJSON,
				Quote:         quoteJSON,
				GrandTotalNGN: q.GrandTotalNGN,
				ComputedAt:    q.ComputedAt,
			})
		}
	}
	if err != nil {
		log.Error().Err(err).Str("quote_id", q.QuoteID).Str("cart_id", q.CartID).Msg("audit write failed")
		if s.metrics != nil {
			s.metrics.AuditWriteFailures.Inc()
		}
	}
}

func (s *Service) publish(ctx context.Context, q *models.Quote) {
	if s.pub == nil || s.topic == "" {
		return
	}
	ev := messages.QuoteComputed{
		QuoteID:       q.QuoteID,
		CartID:        q.CartID,
		DeliveryType:  q.DeliveryType,
		GrandTotalNGN: q.GrandTotalNGN,
		Tags:          q.Tags,
		ETAMinMinutes: q.ETA.MinMinutes,
		ETAMaxMinutes: q.ETA.MaxMinutes,
		ComputedAt:    q.ComputedAt,
	}
	for _, sh := range q.PerShipmentFees {
		ev.Shipments = append(ev.Shipments, messages.ShipmentTotal{
			PickupLocationID: sh.PickupLocationID,
			OriginZone:       sh.OriginZone,
			DestinationZone:  sh.DestinationZone,
			FeeNGN:           sh.FeeNGN,
			AppliedRules:     sh.AppliedRules,
		})
	}

	status := "ok"
	if err := s.pub.PublishJSON(ctx, s.topic, q.CartID, ev); err != nil {
		status = "error"
		logger.WithContext(ctx).Warn().Err(err).Str("quote_id", q.QuoteID).Msg("quote event not published")
	}
	if s.metrics != nil {
		s.metrics.EventPublishTotal.WithLabelValues(s.topic, status).Inc()
	}
}

func (s *Service) observe(err error, shipments int) {
	if s.metrics == nil {
		return
	}
	s.metrics.QuotesTotal.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		s.metrics.ShipmentsPerQuote.Observe(float64(shipments))
	}
}

// Outcome classifies a quote error for metrics and HTTP mapping.
func Outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var (
		noCov     *models.NoCoverageError
		suspended *models.ZoneSuspendedError
		invalid   *models.InvalidCartPartitionError
		badType   *models.UnsupportedDeliveryTypeError
		cfg       *models.ConfigurationMissingError
	)
	switch {
	case errors.As(err, &noCov):
		return metrics.OutcomeNoCoverage
	case errors.As(err, &suspended):
		return metrics.OutcomeSuspended
	case errors.As(err, &invalid):
		return metrics.OutcomeInvalid
	case errors.As(err, &badType):
		return metrics.OutcomeBadType
	case errors.As(err, &cfg):
		return metrics.OutcomeConfig
	default:
		return metrics.OutcomeError
	}
}

func shipmentCount(q *models.Quote) int {
	if q == nil {
		return 0
	}
	return len(q.PerShipmentFees)
}
