package zoneadmin

import (
	"testing"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/stretchr/testify/require"
)

const zonesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {
        "code": "MKD-CORE", "name": "Makurdi core", "cluster": "dense", "area_type": "urban",
        "base_fee": 500, "per_km_fee": 100, "max_fee": 5000,
        "eta_config": {"urban": 3, "highway": 2},
        "delivery_type_multipliers": {"express": 1.25}
      },
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[8.47, 7.70], [8.57, 7.70], [8.57, 7.80], [8.47, 7.80], [8.47, 7.70]]]
      }
    },
    {
      "type": "Feature",
      "id": "GBOKO",
      "properties": {
        "name": "Gboko", "radius_km": 15, "base_fee": 800, "per_km_fee": 150,
        "eta_config": {"rural": 4}, "is_active": false
      },
      "geometry": {"type": "Point", "coordinates": [9.0, 7.32]}
    }
  ]
}`

func TestParseGeoJSON(t *testing.T) {
	recs, err := ParseGeoJSON([]byte(zonesGeoJSON))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	core := recs[0]
	require.Equal(t, "MKD-CORE", core.Code)
	require.Equal(t, models.ClusterDense, core.Cluster)
	require.Len(t, core.Polygon, 4)
	require.Equal(t, models.LatLng{Lat: 7.70, Lng: 8.47}, core.Polygon[0])
	require.Equal(t, int64(5000), core.MaxFee)
	require.Equal(t, 2.0, core.ETAConfig[models.AreaHighway])
	require.Equal(t, 1.25, core.DeliveryTypeMultipliers[models.DeliveryExpress])
	require.Nil(t, core.IsActive)

	gboko := recs[1]
	require.Equal(t, "GBOKO", gboko.Code)
	require.Equal(t, models.ClusterRegional, gboko.Cluster)
	require.Equal(t, &models.LatLng{Lat: 7.32, Lng: 9.0}, gboko.Centroid)
	require.Equal(t, 15.0, gboko.RadiusKm)
	require.NotNil(t, gboko.IsActive)
	require.False(t, *gboko.IsActive)

	require.NoError(t, ValidateRecords(recs))
}

func TestParseGeoJSON_Errors(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`not json`))
	require.Error(t, err)

	line := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"code":"L"},
	  "geometry":{"type":"LineString","coordinates":[[8.4,7.7],[8.5,7.8]]}}]}`
	_, err = ParseGeoJSON([]byte(line))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "L", ve.Code)

	badEta := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"code":"E","eta_config":"fast"},
	  "geometry":{"type":"Point","coordinates":[8.4,7.7]}}]}`
	_, err = ParseGeoJSON([]byte(badEta))
	require.ErrorContains(t, err, "eta_config")
}
