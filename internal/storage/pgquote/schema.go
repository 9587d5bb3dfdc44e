package pgquote

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS delivery_zones (
  code TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  cluster TEXT NOT NULL,
  area_type TEXT NOT NULL,
  polygon JSONB NULL,
  centroid_lat DOUBLE PRECISION NULL,
  centroid_lng DOUBLE PRECISION NULL,
  radius_km DOUBLE PRECISION NOT NULL DEFAULT 0,
  base_fee BIGINT NOT NULL,
  per_km_fee BIGINT NOT NULL,
  min_fee BIGINT NOT NULL DEFAULT 0,
  max_fee BIGINT NOT NULL DEFAULT 0,
  free_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
  eta_config JSONB NOT NULL,
  delivery_type_multipliers JSONB NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  is_suspended BOOLEAN NOT NULL DEFAULT FALSE,
  version BIGINT NOT NULL DEFAULT 1,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		// Free distance is retired; old rows are normalised and new ones rejected.
		`UPDATE delivery_zones SET free_distance_km = 0 WHERE free_distance_km <> 0`,
		`ALTER TABLE delivery_zones DROP CONSTRAINT IF EXISTS chk_delivery_zones_free_distance`,
		`ALTER TABLE delivery_zones ADD CONSTRAINT chk_delivery_zones_free_distance CHECK (free_distance_km = 0)`,
		`
CREATE TABLE IF NOT EXISTS cross_zone_fees (
  zone_a TEXT NOT NULL,
  zone_b TEXT NOT NULL,
  fee BIGINT NOT NULL,
  PRIMARY KEY (zone_a, zone_b),
  CHECK (zone_a < zone_b)
)`,
		`
CREATE TABLE IF NOT EXISTS quote_audit_log (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  quote_id TEXT NOT NULL,
  cart_id TEXT NOT NULL,
  request JSONB NOT NULL,
  quote JSONB NOT NULL,
  grand_total_ngn BIGINT NOT NULL,
  computed_at TIMESTAMPTZ NOT NULL,
  computed_under_old_free_distance BOOLEAN NOT NULL DEFAULT FALSE,
  flag_written_at TIMESTAMPTZ NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_audit_log_cart_id ON quote_audit_log(cart_id)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_audit_log_unflagged ON quote_audit_log(seq) WHERE flag_written_at IS NULL`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
