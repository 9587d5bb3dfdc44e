package zoneadmin

import (
	"fmt"

	"github.com/BearBump/QuoteBox/internal/models"
)

// ValidationError describes the first bad record of an import.
type ValidationError struct {
	Index  int
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("zone record %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("zone record %d (%s): %s", e.Index, e.Code, e.Reason)
}

func ValidateRecords(records []models.ZoneImportRecord) error {
	if len(records) == 0 {
		return &ValidationError{Reason: "no records"}
	}
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if err := validateRecord(r); err != "" {
			return &ValidationError{Index: i, Code: r.Code, Reason: err}
		}
		if _, dup := seen[r.Code]; dup {
			return &ValidationError{Index: i, Code: r.Code, Reason: "duplicate code"}
		}
		seen[r.Code] = struct{}{}
	}
	return nil
}

func validateRecord(r models.ZoneImportRecord) string {
	switch {
	case r.Code == "":
		return "code is required"
	case r.Name == "":
		return "name is required"
	case r.Cluster != models.ClusterDense && r.Cluster != models.ClusterRegional:
		return fmt.Sprintf("unknown cluster %q", r.Cluster)
	}
	switch r.AreaType {
	case "", models.AreaUrban, models.AreaRural, models.AreaHighway:
	default:
		return fmt.Sprintf("unknown area type %q", r.AreaType)
	}

	hasPolygon := len(r.Polygon) >= 3
	hasCentroid := r.Centroid != nil && r.RadiusKm > 0
	if !hasPolygon && !hasCentroid {
		return "polygon (3+ points) or centroid with radius_km is required"
	}
	for _, p := range r.Polygon {
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return "polygon point out of range"
		}
	}

	if r.BaseFee < 0 || r.PerKmFee < 0 || r.MinFee < 0 || r.MaxFee < 0 {
		return "fees must be non-negative"
	}
	if r.MaxFee > 0 && r.MaxFee < r.MinFee {
		return "max_fee below min_fee"
	}
	if len(r.ETAConfig) == 0 {
		return "eta_config is required"
	}
	for area, mpk := range r.ETAConfig {
		if mpk <= 0 {
			return fmt.Sprintf("eta_config %s must be positive", area)
		}
	}
	for dt, m := range r.DeliveryTypeMultipliers {
		if m <= 0 {
			return fmt.Sprintf("multiplier for %s must be positive", dt)
		}
	}
	return ""
}
