package pricing

import (
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/shopspring/decimal"
)

const (
	RuleWeightSurcharge        = "weight_surcharge"
	RuleInsurance              = "insurance"
	RuleCrossZoneFee           = "cross_zone_fee"
	RuleCODSurcharge           = "cod_surcharge"
	RuleDeliveryTypeMultiplier = "delivery_type_multiplier"
	RuleMinFee                 = "min_fee"
	RuleMaxFee                 = "max_fee"
	RuleFreeShipping           = "free_shipping"
)

type state struct {
	cfg  Config
	in   Input
	zone *models.DeliveryZone

	distanceKm float64
	billableKm float64

	bd    models.FeeBreakdown
	rules []string
	tags  []string
}

type rule struct {
	id    string
	apply func(st *state) (bool, error)
}

// precedence is evaluated in literal order; AppliedRules follows it exactly.
var precedence = []rule{
	{id: RuleWeightSurcharge, apply: applyWeightSurcharge},
	{id: RuleInsurance, apply: applyInsurance},
	{id: RuleCrossZoneFee, apply: applyCrossZoneFee},
	{id: RuleCODSurcharge, apply: applyCODSurcharge},
	{id: RuleDeliveryTypeMultiplier, apply: applyMultiplier},
	{id: RuleMinFee, apply: applyMinFee},
	{id: RuleMaxFee, apply: applyMaxFee},
	{id: RuleFreeShipping, apply: applyFreeShipping},
}

// RulePrecedence returns the static rule order.
func RulePrecedence() []string {
	out := make([]string, 0, len(precedence))
	for _, r := range precedence {
		out = append(out, r.id)
	}
	return out
}

func applyWeightSurcharge(st *state) (bool, error) {
	over := decimal.NewFromFloat(st.in.EffectiveWeightKg).Sub(decimal.NewFromFloat(st.cfg.FreeWeightAllowanceKg))
	if !over.IsPositive() {
		return false, nil
	}
	st.bd.WeightSurcharge = roundNGN(over.Mul(decimal.NewFromInt(st.cfg.WeightRatePerKg)))
	return st.bd.WeightSurcharge > 0, nil
}

func applyInsurance(st *state) (bool, error) {
	if st.in.DeclaredValue <= st.cfg.InsuranceThreshold {
		return false, nil
	}
	st.bd.Insurance = roundNGN(decimal.NewFromInt(st.in.DeclaredValue).Mul(decimal.NewFromFloat(st.cfg.InsuranceRate)))
	return st.bd.Insurance > 0, nil
}

func applyCrossZoneFee(st *state) (bool, error) {
	if st.in.Origin.Code != st.in.Destination.Code {
		st.tags = append(st.tags, models.TagCrossZone)
	}
	if st.in.CrossZoneFee <= 0 {
		return false, nil
	}
	st.bd.CrossZoneFee = st.in.CrossZoneFee
	return true, nil
}

func applyCODSurcharge(st *state) (bool, error) {
	if st.in.PaymentMethod != models.PaymentCOD || st.in.Dense {
		return false, nil
	}
	st.bd.CODSurcharge = roundNGN(decimal.NewFromInt(st.in.DeclaredValue).Mul(decimal.NewFromFloat(st.cfg.CODRate)))
	return st.bd.CODSurcharge > 0, nil
}

// applyMultiplier also fixes Subtotal and Total: the multiplier operates on
// the already rounded subtotal.
func applyMultiplier(st *state) (bool, error) {
	st.bd.Subtotal = st.bd.BaseFee + st.bd.DistanceFee + st.bd.WeightSurcharge +
		st.bd.Insurance + st.bd.CrossZoneFee + st.bd.CODSurcharge

	m, err := st.multiplier()
	if err != nil {
		return false, err
	}
	st.bd.Multiplier = m
	st.bd.Total = roundNGN(decimal.NewFromInt(st.bd.Subtotal).Mul(decimal.NewFromFloat(m)))
	return m != 1.0, nil
}

func (st *state) multiplier() (float64, error) {
	dt := st.in.DeliveryType
	if dt == "" {
		dt = models.DeliveryStandard
	}
	if m, ok := st.zone.DeliveryTypeMultipliers[dt]; ok && m > 0 {
		return m, nil
	}
	table := st.cfg.RegionalMultipliers
	if st.in.Dense {
		table = st.cfg.DenseMultipliers
	}
	if m, ok := table[dt]; ok && m > 0 {
		return m, nil
	}
	if dt == models.DeliveryStandard {
		return 1.0, nil
	}
	return 0, &models.ConfigurationMissingError{ZoneCode: st.zone.Code, What: "delivery type multiplier " + dt}
}

func applyMinFee(st *state) (bool, error) {
	if st.zone.MinFee <= 0 || st.bd.Total >= st.zone.MinFee {
		return false, nil
	}
	st.bd.Total = st.zone.MinFee
	return true, nil
}

func applyMaxFee(st *state) (bool, error) {
	if st.zone.MaxFee <= 0 || st.bd.Total <= st.zone.MaxFee {
		return false, nil
	}
	st.bd.Total = st.zone.MaxFee
	return true, nil
}

func applyFreeShipping(st *state) (bool, error) {
	if st.cfg.FreeShippingThreshold <= 0 || st.in.CartSubtotal < st.cfg.FreeShippingThreshold {
		return false, nil
	}
	st.bd.FreeShippingDiscount = st.bd.Total
	st.bd.Total = 0
	st.tags = append([]string{models.TagFreeShipping}, st.tags...)
	return true, nil
}
