package quotes

import (
	"context"

	"github.com/BearBump/QuoteBox/internal/geo"
	"github.com/BearBump/QuoteBox/internal/logger"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/eta"
	"github.com/BearBump/QuoteBox/internal/services/pricing"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// snapshot is the zone configuration read once for one request.
type snapshot struct {
	zones     []*models.DeliveryZone
	crossFees []models.CrossZoneFee
}

// shipmentPlan is everything about a shipment that does not depend on the
// delivery type.
type shipmentPlan struct {
	group    pickupGroup
	origin   *models.DeliveryZone
	weightKg float64
	declared int64
	crossFee int64
	riders   models.RiderSnapshot
}

func (s *Service) compute(
	ctx context.Context,
	req models.DeliveryQuoteRequest,
	snap snapshot,
	pe *pricing.Engine,
	ee *eta.Estimator,
) (*models.Quote, models.DeliveryQuoteRequest, error) {
	groups, err := partition(req.Items)
	if err != nil {
		return nil, req, err
	}
	if req.DeliveryType == "" {
		req.DeliveryType = models.DeliveryStandard
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = s.now()
	}

	known := knownDeliveryTypes(pe.Config(), snap.zones)
	if !known[req.DeliveryType] {
		return nil, req, &models.UnsupportedDeliveryTypeError{DeliveryType: req.DeliveryType}
	}
	req.AlternateDeliveryTypes = supportedAlternates(ctx, req.AlternateDeliveryTypes, known)

	resolver := geo.NewResolver(snap.zones)
	cross := geo.NewCrossZoneFees(snap.crossFees, pe.Config().DefaultCrossZoneFee)

	dest, err := resolver.Resolve(req.DeliveryCoords, "delivery")
	if err != nil {
		return nil, req, err
	}

	plans := make([]shipmentPlan, len(groups))
	riders := map[string]models.RiderSnapshot{}
	for i, g := range groups {
		origin, err := resolver.Resolve(g.coords, "pickup")
		if err != nil {
			return nil, req, err
		}
		rs, ok := riders[origin.Code]
		if !ok {
			rs = s.riderSnapshot(ctx, req, origin.Code)
			riders[origin.Code] = rs
		}
		plans[i] = shipmentPlan{
			group:    g,
			origin:   origin,
			weightKg: pricing.EffectiveWeightKg(g.items),
			declared: pricing.DeclaredValue(g.items),
			crossFee: cross.Lookup(origin.Code, dest.Code),
			riders:   rs,
		}
	}

	var primary []models.Shipment
	options := make([]models.DeliveryOption, 0, 1+len(req.AlternateDeliveryTypes))
	for _, dt := range quotedTypes(req.DeliveryType, req.AlternateDeliveryTypes) {
		shipments, err := s.priceShipments(ctx, req, dt, dest, plans, pe, ee)
		if err != nil {
			if dt == req.DeliveryType {
				return nil, req, err
			}
			var cfgErr *models.ConfigurationMissingError
			if !errors.As(err, &cfgErr) {
				return nil, req, err
			}
			// альтернативный тип без конфигурации просто не предлагаем
			logger.WithContext(ctx).Error().Err(err).
				Str("cart_id", req.CartID).Str("delivery_type", dt).
				Msg("alternate delivery type not quotable")
			continue
		}
		total, window := aggregate(shipments, ee)
		options = append(options, models.DeliveryOption{DeliveryType: dt, GrandTotalNGN: total, ETA: window})
		if dt == req.DeliveryType {
			primary = shipments
		}
	}

	total, window := aggregate(primary, ee)
	tagSets := make([][]string, 0, len(primary))
	for _, sh := range primary {
		tagSets = append(tagSets, sh.Tags)
	}
	req.ZoneRiders = riders

	return &models.Quote{
		QuoteID:         s.newID(),
		CartID:          req.CartID,
		DeliveryType:    req.DeliveryType,
		GrandTotalNGN:   total,
		PerShipmentFees: primary,
		DeliveryOptions: options,
		ETA:             window,
		Tags:            orderTags(tagSets...),
		ComputedAt:      s.now(),
	}, req, nil
}

// priceShipments runs fee and ETA computation for each shipment in parallel.
// Results are written by index; on failure the error of the lowest pickup id
// wins so the outcome does not depend on scheduling.
func (s *Service) priceShipments(
	ctx context.Context,
	req models.DeliveryQuoteRequest,
	deliveryType string,
	dest *models.DeliveryZone,
	plans []shipmentPlan,
	pe *pricing.Engine,
	ee *eta.Estimator,
) ([]models.Shipment, error) {
	out := make([]models.Shipment, len(plans))
	errs := make([]error, len(plans))

	g, _ := errgroup.WithContext(ctx)
	for i := range plans {
		i := i
		g.Go(func() error {
			out[i], errs[i] = priceOne(req, deliveryType, dest, plans[i], pe, ee)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func priceOne(
	req models.DeliveryQuoteRequest,
	deliveryType string,
	dest *models.DeliveryZone,
	p shipmentPlan,
	pe *pricing.Engine,
	ee *eta.Estimator,
) (models.Shipment, error) {
	res, err := pe.Calculate(pricing.Input{
		OriginCoords:      p.group.coords,
		DestinationCoords: req.DeliveryCoords,
		Origin:            p.origin,
		Destination:       dest,
		EffectiveWeightKg: p.weightKg,
		DeclaredValue:     p.declared,
		DeliveryType:      deliveryType,
		PaymentMethod:     req.PaymentMethod,
		Dense:             p.origin.IsDense() && dest.IsDense(),
		CrossZoneFee:      p.crossFee,
		CartSubtotal:      req.SubtotalNGN,
	})
	if err != nil {
		return models.Shipment{}, err
	}

	window, err := ee.Estimate(eta.Input{
		DistanceKm:   res.DistanceKm,
		Zone:         dest,
		AreaType:     eta.AreaFor(p.origin, dest),
		DeliveryType: deliveryType,
		RequestedAt:  req.RequestedAt,
		Riders:       p.riders,
	})
	if err != nil {
		return models.Shipment{}, err
	}

	return models.Shipment{
		PickupLocationID:  p.group.id,
		PickupCoords:      p.group.coords,
		OriginZone:        p.origin.Code,
		DestinationZone:   dest.Code,
		DistanceKm:        res.DistanceKm,
		BillableKm:        res.BillableKm,
		EffectiveWeightKg: p.weightKg,
		DeclaredValue:     p.declared,
		Fees:              res.Breakdown,
		FeeNGN:            res.Fee,
		ETA:               window,
		AppliedRules:      res.AppliedRules,
		Tags:              orderTags(res.Tags),
	}, nil
}

// aggregate sums shipment fees and widens the ETA window over all shipments.
func aggregate(shipments []models.Shipment, ee *eta.Estimator) (int64, models.ETAWindow) {
	var total int64
	var window models.ETAWindow
	for i, sh := range shipments {
		total += sh.FeeNGN
		window = eta.Union(window, sh.ETA, i == 0)
	}
	if len(shipments) > 1 {
		window.Text = ee.Format(window.MinMinutes, window.MaxMinutes)
	}
	return total, window
}

func (s *Service) riderSnapshot(ctx context.Context, req models.DeliveryQuoteRequest, zoneCode string) models.RiderSnapshot {
	if req.Riders != nil {
		return *req.Riders
	}
	if rs, ok := req.ZoneRiders[zoneCode]; ok {
		return rs
	}
	if s.riders == nil {
		return models.RiderSnapshot{}
	}
	rs, err := s.riders.Snapshot(ctx, zoneCode)
	if err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("zone", zoneCode).Msg("rider availability unavailable, using empty snapshot")
		return models.RiderSnapshot{}
	}
	return rs
}

// knownDeliveryTypes lists every type some multiplier table can price.
func knownDeliveryTypes(cfg pricing.Config, zones []*models.DeliveryZone) map[string]bool {
	known := make(map[string]bool, len(models.DeliveryTypeOrder))
	for _, t := range models.DeliveryTypeOrder {
		known[t] = true
	}
	for t := range cfg.DenseMultipliers {
		known[t] = true
	}
	for t := range cfg.RegionalMultipliers {
		known[t] = true
	}
	for _, z := range zones {
		for t := range z.DeliveryTypeMultipliers {
			known[t] = true
		}
	}
	return known
}

func supportedAlternates(ctx context.Context, alternates []string, known map[string]bool) []string {
	if len(alternates) == 0 {
		return alternates
	}
	out := make([]string, 0, len(alternates))
	for _, t := range alternates {
		if t != "" && !known[t] {
			logger.WithContext(ctx).Debug().Str("delivery_type", t).Msg("unsupported alternate delivery type skipped")
			continue
		}
		out = append(out, t)
	}
	return out
}
