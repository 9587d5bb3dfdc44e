package quotes_api

import (
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/BearBump/QuoteBox/internal/services/eta"
	"github.com/BearBump/QuoteBox/internal/services/pricing"
	"github.com/BearBump/QuoteBox/internal/services/quotes"
	"github.com/BearBump/QuoteBox/internal/services/zoneadmin"
)

type coordsDTO struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

func (c coordsDTO) toModel() models.LatLng {
	var out models.LatLng
	if c.Lat != nil {
		out.Lat = *c.Lat
	}
	if c.Lng != nil {
		out.Lng = *c.Lng
	}
	return out
}

type dimensionsDTO struct {
	LengthCm float64 `json:"length_cm" validate:"gte=0"`
	WidthCm  float64 `json:"width_cm" validate:"gte=0"`
	HeightCm float64 `json:"height_cm" validate:"gte=0"`
}

type itemDTO struct {
	ProductID        string         `json:"product_id" validate:"required"`
	Quantity         int            `json:"quantity"`
	Price            int64          `json:"price" validate:"gte=0"`
	WeightKg         *float64       `json:"weight_kg" validate:"omitempty,gte=0"`
	Dimensions       *dimensionsDTO `json:"dimensions" validate:"omitempty"`
	PickupLocationID string         `json:"pickup_location_id"`
	PickupCoords     coordsDTO      `json:"pickup_coords"`
}

type ridersDTO struct {
	ActiveRiders int `json:"active_riders" validate:"gte=0"`
	QueuedJobs   int `json:"queued_jobs" validate:"gte=0"`
}

// quantity and pickup fields are checked by the quote service so that a bad
// cart partition surfaces as invalid_cart.
type quoteRequestDTO struct {
	CartID                 string     `json:"cart_id" validate:"required"`
	SubtotalNGN            int64      `json:"subtotal_ngn" validate:"gte=0"`
	Items                  []itemDTO  `json:"items" validate:"dive"`
	PaymentMethod          string     `json:"payment_method" validate:"required,oneof=card cod transfer wallet"`
	DeliveryCoords         coordsDTO  `json:"delivery_coords"`
	DeliveryType           string     `json:"delivery_type"`
	AlternateDeliveryTypes []string   `json:"alternate_delivery_types"`
	RequestedAt            *time.Time `json:"requested_at"`
	Riders                 *ridersDTO `json:"riders" validate:"omitempty"`
}

func (d quoteRequestDTO) toModel() models.DeliveryQuoteRequest {
	req := models.DeliveryQuoteRequest{
		CartID:                 d.CartID,
		SubtotalNGN:            d.SubtotalNGN,
		Items:                  make([]models.CartItem, 0, len(d.Items)),
		PaymentMethod:          d.PaymentMethod,
		DeliveryCoords:         d.DeliveryCoords.toModel(),
		DeliveryType:           d.DeliveryType,
		AlternateDeliveryTypes: d.AlternateDeliveryTypes,
	}
	if d.RequestedAt != nil {
		req.RequestedAt = d.RequestedAt.UTC()
	}
	if d.Riders != nil {
		req.Riders = &models.RiderSnapshot{ActiveRiders: d.Riders.ActiveRiders, QueuedJobs: d.Riders.QueuedJobs}
	}
	for _, it := range d.Items {
		ci := models.CartItem{
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			Price:            it.Price,
			WeightKg:         it.WeightKg,
			PickupLocationID: it.PickupLocationID,
			PickupCoords:     it.PickupCoords.toModel(),
		}
		if it.Dimensions != nil {
			ci.Dimensions = &models.Dimensions{
				LengthCm: it.Dimensions.LengthCm,
				WidthCm:  it.Dimensions.WidthCm,
				HeightCm: it.Dimensions.HeightCm,
			}
		}
		req.Items = append(req.Items, ci)
	}
	return req
}

type pricingOverrideDTO struct {
	FreeWeightAllowanceKg *float64           `json:"free_weight_allowance_kg" validate:"omitempty,gt=0"`
	WeightRatePerKg       *int64             `json:"weight_rate_per_kg" validate:"omitempty,gt=0"`
	InsuranceThreshold    *int64             `json:"insurance_threshold" validate:"omitempty,gt=0"`
	InsuranceRate         *float64           `json:"insurance_rate" validate:"omitempty,gt=0"`
	CODRate               *float64           `json:"cod_rate" validate:"omitempty,gt=0"`
	FreeShippingThreshold *int64             `json:"free_shipping_threshold" validate:"omitempty,gte=-1"`
	DefaultCrossZoneFee   *int64             `json:"default_cross_zone_fee" validate:"omitempty,gte=0"`
	DenseMultipliers      map[string]float64 `json:"dense_multipliers"`
	RegionalMultipliers   map[string]float64 `json:"regional_multipliers"`
}

func (d *pricingOverrideDTO) apply(cfg pricing.Config) pricing.Config {
	if d.FreeWeightAllowanceKg != nil {
		cfg.FreeWeightAllowanceKg = *d.FreeWeightAllowanceKg
	}
	if d.WeightRatePerKg != nil {
		cfg.WeightRatePerKg = *d.WeightRatePerKg
	}
	if d.InsuranceThreshold != nil {
		cfg.InsuranceThreshold = *d.InsuranceThreshold
	}
	if d.InsuranceRate != nil {
		cfg.InsuranceRate = *d.InsuranceRate
	}
	if d.CODRate != nil {
		cfg.CODRate = *d.CODRate
	}
	if d.FreeShippingThreshold != nil {
		cfg.FreeShippingThreshold = *d.FreeShippingThreshold
	}
	if d.DefaultCrossZoneFee != nil {
		cfg.DefaultCrossZoneFee = *d.DefaultCrossZoneFee
	}
	if len(d.DenseMultipliers) > 0 {
		cfg.DenseMultipliers = d.DenseMultipliers
	}
	if len(d.RegionalMultipliers) > 0 {
		cfg.RegionalMultipliers = d.RegionalMultipliers
	}
	return cfg
}

type etaOverrideDTO struct {
	PeakWindows         []string           `json:"peak_windows"`
	CongestionFactor    *float64           `json:"congestion_factor" validate:"omitempty,gte=0"`
	DeliveryTypeFactors map[string]float64 `json:"delivery_type_factors"`
	BaseDispatchMinutes *int               `json:"base_dispatch_minutes" validate:"omitempty,gt=0"`
	PerExcessJobMinutes *int               `json:"per_excess_job_minutes" validate:"omitempty,gt=0"`
	SpreadMinutes       *float64           `json:"spread_minutes" validate:"omitempty,gt=0"`
}

func (d *etaOverrideDTO) apply(cfg eta.Config) (eta.Config, error) {
	if d.PeakWindows != nil {
		windows := make([]eta.Window, 0, len(d.PeakWindows))
		for _, s := range d.PeakWindows {
			w, err := eta.ParseWindow(s)
			if err != nil {
				return cfg, err
			}
			windows = append(windows, w)
		}
		cfg.PeakWindows = windows
	}
	if d.CongestionFactor != nil {
		cfg.CongestionFactor = *d.CongestionFactor
	}
	if len(d.DeliveryTypeFactors) > 0 {
		cfg.DeliveryTypeFactors = d.DeliveryTypeFactors
	}
	if d.BaseDispatchMinutes != nil {
		cfg.BaseDispatchMinutes = *d.BaseDispatchMinutes
	}
	if d.PerExcessJobMinutes != nil {
		cfg.PerExcessJobMinutes = *d.PerExcessJobMinutes
	}
	if d.SpreadMinutes != nil {
		cfg.SpreadMinutes = *d.SpreadMinutes
	}
	return cfg, nil
}

type overridesDTO struct {
	Pricing       *pricingOverrideDTO       `json:"pricing" validate:"omitempty"`
	ETA           *etaOverrideDTO           `json:"eta" validate:"omitempty"`
	Zones         []models.ZoneImportRecord `json:"zones"`
	CrossZoneFees []models.CrossZoneFee     `json:"cross_zone_fees"`
}

type previewRequestDTO struct {
	Request   quoteRequestDTO `json:"request"`
	Overrides overridesDTO    `json:"overrides"`
}

// overrides patches the live configuration with the fields the caller sent.
func (d previewRequestDTO) overrides(pc pricing.Config, ec eta.Config) (quotes.Overrides, error) {
	var ov quotes.Overrides
	if d.Overrides.Pricing != nil {
		cfg := d.Overrides.Pricing.apply(pc)
		ov.Pricing = &cfg
	}
	if d.Overrides.ETA != nil {
		cfg, err := d.Overrides.ETA.apply(ec)
		if err != nil {
			return ov, &zoneadmin.ValidationError{Reason: err.Error()}
		}
		ov.ETA = &cfg
	}
	if len(d.Overrides.Zones) > 0 {
		if err := zoneadmin.ValidateRecords(d.Overrides.Zones); err != nil {
			return ov, err
		}
		for _, r := range d.Overrides.Zones {
			z := r.ToZone()
			if z.AreaType == "" {
				z.AreaType = models.AreaUrban
			}
			ov.Zones = append(ov.Zones, &z)
		}
	}
	ov.CrossZoneFees = d.Overrides.CrossZoneFees
	return ov, nil
}

type importRecordsDTO struct {
	Records []models.ZoneImportRecord `json:"records"`
}

type legacyFeeDTO struct {
	SubtotalNGN int64 `json:"subtotal_ngn"`
	FeeNGN      int64 `json:"fee_ngn"`
}

type errorDTO struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
