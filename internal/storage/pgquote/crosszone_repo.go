package pgquote

import (
	"context"

	"github.com/BearBump/QuoteBox/internal/geo"
	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) ListCrossZoneFees(ctx context.Context) ([]models.CrossZoneFee, error) {
	rows, err := s.db.Query(ctx, `SELECT zone_a, zone_b, fee FROM cross_zone_fees ORDER BY zone_a, zone_b`)
	if err != nil {
		return nil, errors.Wrap(err, "select cross-zone fees")
	}
	defer rows.Close()

	out := []models.CrossZoneFee{}
	for rows.Next() {
		var f models.CrossZoneFee
		if err := rows.Scan(&f.ZoneA, &f.ZoneB, &f.Fee); err != nil {
			return nil, errors.Wrap(err, "scan cross-zone fee")
		}
		out = append(out, f)
	}
	return out, errors.Wrap(rows.Err(), "rows cross-zone fees")
}

// UpsertCrossZoneFee stores the pair with the smaller code first.
func (s *Storage) UpsertCrossZoneFee(ctx context.Context, f models.CrossZoneFee) error {
	if f.ZoneA == f.ZoneB {
		return errors.New("cross-zone fee needs two distinct zones")
	}
	key := geo.PairKey(f.ZoneA, f.ZoneB)
	_, err := s.db.Exec(ctx, `
INSERT INTO cross_zone_fees (zone_a, zone_b, fee) VALUES ($1,$2,$3)
ON CONFLICT (zone_a, zone_b) DO UPDATE SET fee = EXCLUDED.fee
`, key[0], key[1], f.Fee)
	return errors.Wrap(err, "upsert cross-zone fee")
}
