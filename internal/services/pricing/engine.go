package pricing

import (
	"github.com/BearBump/QuoteBox/internal/geo"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/shopspring/decimal"
)

type Input struct {
	OriginCoords      models.LatLng
	DestinationCoords models.LatLng
	Origin            *models.DeliveryZone
	Destination       *models.DeliveryZone

	EffectiveWeightKg float64
	DeclaredValue     int64
	DeliveryType      string
	PaymentMethod     string
	// Dense is true when both endpoints lie in the dense cluster.
	Dense bool

	CrossZoneFee int64
	CartSubtotal int64
}

type Result struct {
	DistanceKm   float64
	BillableKm   float64
	Breakdown    models.FeeBreakdown
	Fee          int64
	AppliedRules []string
	Tags         []string
}

type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

func (e *Engine) Config() Config { return e.cfg }

// Calculate builds the fee breakdown for one shipment. The destination zone
// is the pricing zone. Suspension is checked before any rule runs and wins
// over every other rule and rule error.
func (e *Engine) Calculate(in Input) (Result, error) {
	if in.Origin == nil || in.Destination == nil {
		code := ""
		if in.Destination != nil {
			code = in.Destination.Code
		}
		return Result{}, &models.ConfigurationMissingError{ZoneCode: code, What: "zone"}
	}

	if in.Destination.IsSuspended {
		return Result{}, &models.ZoneSuspendedError{ZoneCode: in.Destination.Code}
	}
	if in.Origin.IsSuspended {
		return Result{}, &models.ZoneSuspendedError{ZoneCode: in.Origin.Code}
	}

	distance := geo.HaversineKm(in.OriginCoords, in.DestinationCoords)
	st := &state{
		cfg:        e.cfg,
		in:         in,
		zone:       in.Destination,
		distanceKm: distance,
		// free distance is permanently zero: every kilometre is billed
		billableKm: distance,
	}

	st.bd.BaseFee = in.Destination.BaseFee
	st.bd.DistanceFee = roundNGN(decimal.NewFromFloat(st.billableKm).Mul(decimal.NewFromInt(in.Destination.PerKmFee)))

	for _, r := range precedence {
		fired, err := r.apply(st)
		if err != nil {
			return Result{}, err
		}
		if fired {
			st.rules = append(st.rules, r.id)
		}
	}

	if st.rules == nil {
		st.rules = []string{}
	}
	return Result{
		DistanceKm:   st.distanceKm,
		BillableKm:   st.billableKm,
		Breakdown:    st.bd,
		Fee:          st.bd.Total,
		AppliedRules: st.rules,
		Tags:         st.tags,
	}, nil
}

// LegacyFlatFee serves callers that only know the cart subtotal.
func (e *Engine) LegacyFlatFee(subtotal int64) int64 {
	if e.cfg.FreeShippingThreshold > 0 && subtotal >= e.cfg.FreeShippingThreshold {
		return 0
	}
	return e.cfg.LegacyFlatFee
}

func roundNGN(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
