package models

import "time"

// Кластеры зон.
const (
	ClusterDense    = "dense"
	ClusterRegional = "regional"
)

// Типы местности для профиля скорости.
const (
	AreaUrban   = "urban"
	AreaRural   = "rural"
	AreaHighway = "highway"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ETAConfig maps an area type to base travel minutes per kilometre.
type ETAConfig map[string]float64

type DeliveryZone struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Cluster  string `json:"cluster"`
	AreaType string `json:"area_type"`

	// Polygon is an outer ring of points. When empty the zone is covered by
	// Centroid+RadiusKm instead.
	Polygon  []LatLng `json:"polygon,omitempty"`
	Centroid *LatLng  `json:"centroid,omitempty"`
	RadiusKm float64  `json:"radius_km,omitempty"`

	BaseFee        int64   `json:"base_fee"`
	PerKmFee       int64   `json:"per_km_fee"`
	MinFee         int64   `json:"min_fee"`
	MaxFee         int64   `json:"max_fee"`
	FreeDistanceKm float64 `json:"free_distance_km"`

	ETAConfig               ETAConfig          `json:"eta_config"`
	DeliveryTypeMultipliers map[string]float64 `json:"delivery_type_multipliers,omitempty"`

	IsActive    bool  `json:"is_active"`
	IsSuspended bool  `json:"is_suspended"`
	Version     int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (z *DeliveryZone) HasPolygon() bool {
	return len(z.Polygon) >= 3
}

func (z *DeliveryZone) IsDense() bool {
	return z.Cluster == ClusterDense
}

// ZoneImportRecord is one row of a bulk zone import. Upserted by Code.
type ZoneImportRecord struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Cluster  string   `json:"cluster"`
	AreaType string   `json:"area_type"`
	Polygon  []LatLng `json:"polygon,omitempty"`
	Centroid *LatLng  `json:"centroid,omitempty"`
	RadiusKm float64  `json:"radius_km,omitempty"`

	BaseFee  int64 `json:"base_fee"`
	PerKmFee int64 `json:"per_km_fee"`
	MinFee   int64 `json:"min_fee"`
	MaxFee   int64 `json:"max_fee"`

	ETAConfig               ETAConfig          `json:"eta_config"`
	DeliveryTypeMultipliers map[string]float64 `json:"delivery_type_multipliers,omitempty"`

	// IsActive defaults to true when absent.
	IsActive *bool `json:"is_active,omitempty"`
}

func (r ZoneImportRecord) ToZone() DeliveryZone {
	return DeliveryZone{
		Code:                    r.Code,
		Name:                    r.Name,
		Cluster:                 r.Cluster,
		AreaType:                r.AreaType,
		Polygon:                 r.Polygon,
		Centroid:                r.Centroid,
		RadiusKm:                r.RadiusKm,
		BaseFee:                 r.BaseFee,
		PerKmFee:                r.PerKmFee,
		MinFee:                  r.MinFee,
		MaxFee:                  r.MaxFee,
		ETAConfig:               r.ETAConfig,
		DeliveryTypeMultipliers: r.DeliveryTypeMultipliers,
		IsActive:                r.IsActive == nil || *r.IsActive,
	}
}

// CrossZoneFee is stored with ZoneA < ZoneB.
type CrossZoneFee struct {
	ZoneA string `json:"zone_a"`
	ZoneB string `json:"zone_b"`
	Fee   int64  `json:"fee"`
}
