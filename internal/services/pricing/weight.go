package pricing

import (
	"math"

	"github.com/BearBump/QuoteBox/internal/geo"
	"github.com/BearBump/QuoteBox/internal/models"
)

const volumetricDivisor = 5000.0

// EffectiveWeightKg = max(gross, volumetric), both summed over items and
// scaled by quantity, rounded to 3 decimals.
func EffectiveWeightKg(items []models.CartItem) float64 {
	var gross, volumetric float64
	for _, it := range items {
		q := float64(it.Quantity)
		if it.WeightKg != nil {
			gross += *it.WeightKg * q
		}
		if d := it.Dimensions; d != nil {
			volumetric += d.LengthCm * d.WidthCm * d.HeightCm / volumetricDivisor * q
		}
	}
	return geo.Round3(math.Max(gross, volumetric))
}

func DeclaredValue(items []models.CartItem) int64 {
	var v int64
	for _, it := range items {
		v += it.Price * int64(it.Quantity)
	}
	return v
}
