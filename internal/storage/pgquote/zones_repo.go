package pgquote

import (
	"context"
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const zoneColumns = `
  code, name, cluster, area_type,
  polygon, centroid_lat, centroid_lng, radius_km,
  base_fee, per_km_fee, min_fee, max_fee, free_distance_km,
  eta_config, delivery_type_multipliers,
  is_active, is_suspended, version,
  created_at, updated_at`

func (s *Storage) ListZones(ctx context.Context) ([]*models.DeliveryZone, error) {
	rows, err := s.db.Query(ctx, `SELECT`+zoneColumns+` FROM delivery_zones ORDER BY code`)
	if err != nil {
		return nil, errors.Wrap(err, "select zones")
	}
	defer rows.Close()

	out := []*models.DeliveryZone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows zones")
	}
	return out, nil
}

func (s *Storage) GetZone(ctx context.Context, code string) (*models.DeliveryZone, error) {
	z, err := scanZone(s.db.QueryRow(ctx, `SELECT`+zoneColumns+` FROM delivery_zones WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.ZoneNotFoundError{ZoneCode: code}
	}
	return z, err
}

// SetZoneSuspended is a single-row update, so readers see either the old or
// the new zone state, never a mix.
func (s *Storage) SetZoneSuspended(ctx context.Context, code string, suspended bool, at time.Time) (*models.DeliveryZone, error) {
	z, err := scanZone(s.db.QueryRow(ctx, `
UPDATE delivery_zones
SET is_suspended = $2, version = version + 1, updated_at = $3
WHERE code = $1
RETURNING`+zoneColumns, code, suspended, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.ZoneNotFoundError{ZoneCode: code}
	}
	return z, err
}

// UpsertZones inserts or updates zones by code in one transaction. Existing
// rows keep created_at and is_suspended.
func (s *Storage) UpsertZones(ctx context.Context, zones []models.DeliveryZone, at time.Time) ([]*models.DeliveryZone, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]*models.DeliveryZone, 0, len(zones))
	for i := range zones {
		z := &zones[i]
		polygon, eta, mult, err := encodeZoneJSON(z)
		if err != nil {
			return nil, err
		}
		var lat, lng *float64
		if z.Centroid != nil {
			lat, lng = &z.Centroid.Lat, &z.Centroid.Lng
		}

		saved, err := scanZone(tx.QueryRow(ctx, `
INSERT INTO delivery_zones (
  code, name, cluster, area_type,
  polygon, centroid_lat, centroid_lng, radius_km,
  base_fee, per_km_fee, min_fee, max_fee, free_distance_km,
  eta_config, delivery_type_multipliers,
  is_active, is_suspended, version, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,0,$13,$14,$15,FALSE,1,$16,$16)
ON CONFLICT (code) DO UPDATE SET
  name = EXCLUDED.name,
  cluster = EXCLUDED.cluster,
  area_type = EXCLUDED.area_type,
  polygon = EXCLUDED.polygon,
  centroid_lat = EXCLUDED.centroid_lat,
  centroid_lng = EXCLUDED.centroid_lng,
  radius_km = EXCLUDED.radius_km,
  base_fee = EXCLUDED.base_fee,
  per_km_fee = EXCLUDED.per_km_fee,
  min_fee = EXCLUDED.min_fee,
  max_fee = EXCLUDED.max_fee,
  free_distance_km = 0,
  eta_config = EXCLUDED.eta_config,
  delivery_type_multipliers = EXCLUDED.delivery_type_multipliers,
  is_active = EXCLUDED.is_active,
  version = delivery_zones.version + 1,
  updated_at = EXCLUDED.updated_at
RETURNING`+zoneColumns,
			z.Code, z.Name, z.Cluster, z.AreaType,
			polygon, lat, lng, z.RadiusKm,
			z.BaseFee, z.PerKmFee, z.MinFee, z.MaxFee,
			eta, mult, z.IsActive, at,
		))
		if err != nil {
			return nil, errors.Wrapf(err, "upsert zone %s", z.Code)
		}
		out = append(out, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return out, nil
}

func encodeZoneJSON(z *models.DeliveryZone) (polygon, eta, mult []byte, err error) {
	if len(z.Polygon) > 0 {
		if polygon, err = json.Marshal(z.Polygon); err != nil {
			return nil, nil, nil, errors.Wrap(err, "encode polygon")
		}
	}
	etaCfg := z.ETAConfig
	if etaCfg == nil {
		etaCfg = models.ETAConfig{}
	}
	if eta, err = json.Marshal(etaCfg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "encode eta config")
	}
	if len(z.DeliveryTypeMultipliers) > 0 {
		if mult, err = json.Marshal(z.DeliveryTypeMultipliers); err != nil {
			return nil, nil, nil, errors.Wrap(err, "encode multipliers")
		}
	}
	return polygon, eta, mult, nil
}

func scanZone(row pgx.Row) (*models.DeliveryZone, error) {
	var (
		z                        models.DeliveryZone
		polygon, eta, mult       []byte
		centroidLat, centroidLng *float64
	)
	if err := row.Scan(
		&z.Code, &z.Name, &z.Cluster, &z.AreaType,
		&polygon, &centroidLat, &centroidLng, &z.RadiusKm,
		&z.BaseFee, &z.PerKmFee, &z.MinFee, &z.MaxFee, &z.FreeDistanceKm,
		&eta, &mult,
		&z.IsActive, &z.IsSuspended, &z.Version,
		&z.CreatedAt, &z.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan zone")
	}

	if len(polygon) > 0 {
		if err := json.Unmarshal(polygon, &z.Polygon); err != nil {
			return nil, errors.Wrapf(err, "decode polygon of %s", z.Code)
		}
	}
	if centroidLat != nil && centroidLng != nil {
		z.Centroid = &models.LatLng{Lat: *centroidLat, Lng: *centroidLng}
	}
	if len(eta) > 0 {
		if err := json.Unmarshal(eta, &z.ETAConfig); err != nil {
			return nil, errors.Wrapf(err, "decode eta config of %s", z.Code)
		}
	}
	if len(mult) > 0 {
		if err := json.Unmarshal(mult, &z.DeliveryTypeMultipliers); err != nil {
			return nil, errors.Wrapf(err, "decode multipliers of %s", z.Code)
		}
	}
	z.CreatedAt = z.CreatedAt.UTC()
	z.UpdatedAt = z.UpdatedAt.UTC()
	return &z, nil
}
