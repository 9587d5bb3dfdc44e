package geo

import (
	"math"

	"github.com/BearBump/QuoteBox/internal/models"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres rounded to
// 3 decimal places.
func HaversineKm(a, b models.LatLng) float64 {
	if a == b {
		return 0
	}
	rad := func(d float64) float64 { return d * math.Pi / 180.0 }
	dlat := rad(b.Lat - a.Lat)
	dlng := rad(b.Lng - a.Lng)
	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return Round3(earthRadiusKm * c)
}

func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
