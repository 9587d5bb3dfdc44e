package zoneadmin

import (
	"math"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// ParseGeoJSON turns a FeatureCollection into import records. Polygon
// features become polygon zones (outer ring only); Point features become
// centroid zones and need a radius_km property. Pricing fields come from
// feature properties.
func ParseGeoJSON(data []byte) ([]models.ZoneImportRecord, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse geojson")
	}

	out := make([]models.ZoneImportRecord, 0, len(fc.Features))
	for i, f := range fc.Features {
		rec, err := featureToRecord(f)
		if err != nil {
			return nil, &ValidationError{Index: i, Code: f.Properties.MustString("code", ""), Reason: err.Error()}
		}
		out = append(out, rec)
	}
	return out, nil
}

func featureToRecord(f *geojson.Feature) (models.ZoneImportRecord, error) {
	p := f.Properties
	rec := models.ZoneImportRecord{
		Code:     p.MustString("code", ""),
		Name:     p.MustString("name", ""),
		Cluster:  p.MustString("cluster", models.ClusterRegional),
		AreaType: p.MustString("area_type", ""),
		RadiusKm: p.MustFloat64("radius_km", 0),
		BaseFee:  wholeNGN(p.MustFloat64("base_fee", 0)),
		PerKmFee: wholeNGN(p.MustFloat64("per_km_fee", 0)),
		MinFee:   wholeNGN(p.MustFloat64("min_fee", 0)),
		MaxFee:   wholeNGN(p.MustFloat64("max_fee", 0)),
	}
	if rec.Code == "" {
		if id, ok := f.ID.(string); ok {
			rec.Code = id
		}
	}
	if _, ok := p["is_active"]; ok {
		active := p.MustBool("is_active", true)
		rec.IsActive = &active
	}

	var err error
	if rec.ETAConfig, err = floatMap(p, "eta_config"); err != nil {
		return rec, err
	}
	if rec.DeliveryTypeMultipliers, err = floatMap(p, "delivery_type_multipliers"); err != nil {
		return rec, err
	}

	switch g := f.Geometry.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			return rec, errors.New("empty polygon")
		}
		rec.Polygon = ringToLatLng(g[0])
	case orb.Point:
		rec.Centroid = &models.LatLng{Lat: g.Lat(), Lng: g.Lon()}
	case nil:
		return rec, errors.New("feature has no geometry")
	default:
		return rec, errors.Errorf("unsupported geometry %s", g.GeoJSONType())
	}
	return rec, nil
}

func ringToLatLng(r orb.Ring) []models.LatLng {
	if r.Closed() && len(r) > 1 {
		r = r[:len(r)-1]
	}
	out := make([]models.LatLng, 0, len(r))
	for _, pt := range r {
		out = append(out, models.LatLng{Lat: pt.Lat(), Lng: pt.Lon()})
	}
	return out
}

func floatMap(p geojson.Properties, key string) (map[string]float64, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%s must be an object", key)
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		f, ok := v.(float64)
		if !ok {
			return nil, errors.Errorf("%s.%s must be a number", key, k)
		}
		out[k] = f
	}
	return out, nil
}

func wholeNGN(v float64) int64 {
	return int64(math.Round(v))
}
