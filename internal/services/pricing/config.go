package pricing

import "github.com/BearBump/QuoteBox/internal/models"

type Config struct {
	FreeWeightAllowanceKg float64
	WeightRatePerKg       int64

	InsuranceThreshold int64
	InsuranceRate      float64

	CODRate float64

	FreeShippingThreshold int64
	LegacyFlatFee         int64

	DefaultCrossZoneFee int64

	// Cluster multiplier tables; a zone's own DeliveryTypeMultipliers win.
	DenseMultipliers    map[string]float64
	RegionalMultipliers map[string]float64
}

func DefaultConfig() Config {
	return Config{
		FreeWeightAllowanceKg: 5,
		WeightRatePerKg:       100,
		InsuranceThreshold:    50_000,
		InsuranceRate:         0.01,
		CODRate:               0.02,
		FreeShippingThreshold: 100_000,
		LegacyFlatFee:         1_500,
		DefaultCrossZoneFee:   500,
		DenseMultipliers: map[string]float64{
			models.DeliveryStandard: 1.0,
			models.DeliveryExpress:  1.3,
			models.DeliverySameDay:  1.6,
		},
		RegionalMultipliers: map[string]float64{
			models.DeliveryStandard: 1.0,
			models.DeliveryExpress:  1.5,
			models.DeliverySameDay:  2.0,
		},
	}
}

// withDefaults fills zero fields from DefaultConfig. A zero
// FreeShippingThreshold stays zero only when explicitly disabled with -1.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FreeWeightAllowanceKg <= 0 {
		c.FreeWeightAllowanceKg = def.FreeWeightAllowanceKg
	}
	if c.WeightRatePerKg <= 0 {
		c.WeightRatePerKg = def.WeightRatePerKg
	}
	if c.InsuranceThreshold <= 0 {
		c.InsuranceThreshold = def.InsuranceThreshold
	}
	if c.InsuranceRate <= 0 {
		c.InsuranceRate = def.InsuranceRate
	}
	if c.CODRate <= 0 {
		c.CODRate = def.CODRate
	}
	if c.FreeShippingThreshold == 0 {
		c.FreeShippingThreshold = def.FreeShippingThreshold
	}
	if c.LegacyFlatFee <= 0 {
		c.LegacyFlatFee = def.LegacyFlatFee
	}
	if c.DefaultCrossZoneFee < 0 {
		c.DefaultCrossZoneFee = def.DefaultCrossZoneFee
	}
	if len(c.DenseMultipliers) == 0 {
		c.DenseMultipliers = def.DenseMultipliers
	}
	if len(c.RegionalMultipliers) == 0 {
		c.RegionalMultipliers = def.RegionalMultipliers
	}
	return c
}
