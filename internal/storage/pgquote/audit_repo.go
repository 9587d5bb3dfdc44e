package pgquote

import (
	"context"
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// InsertAudit appends one immutable quote record.
func (s *Storage) InsertAudit(ctx context.Context, e *models.AuditLogEntry) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO quote_audit_log (id, quote_id, cart_id, request, quote, grand_total_ngn, computed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, e.ID, e.QuoteID, e.CartID, []byte(e.Request), []byte(e.Quote), e.GrandTotalNGN, e.ComputedAt)
	return errors.Wrap(err, "insert audit")
}

// FlagAuditBatch writes the free-distance flag for the next unflagged rows in
// seq order. Flagged rows are excluded, so the flag is written once per row.
func (s *Storage) FlagAuditBatch(ctx context.Context, cutover, now time.Time, limit int) (int, error) {
	tag, err := s.db.Exec(ctx, `
WITH batch AS (
  SELECT seq FROM quote_audit_log
  WHERE flag_written_at IS NULL
  ORDER BY seq
  LIMIT $3
  FOR UPDATE SKIP LOCKED
)
UPDATE quote_audit_log a
SET computed_under_old_free_distance = (a.computed_at < $1),
    flag_written_at = $2
FROM batch
WHERE a.seq = batch.seq AND a.flag_written_at IS NULL
`, cutover, now, limit)
	if err != nil {
		return 0, errors.Wrap(err, "flag audit batch")
	}
	return int(tag.RowsAffected()), nil
}

func (s *Storage) CountAuditFlags(ctx context.Context) (models.AuditFlagCounts, error) {
	var c models.AuditFlagCounts
	err := s.db.QueryRow(ctx, `
SELECT
  COUNT(*) FILTER (WHERE flag_written_at IS NOT NULL AND computed_under_old_free_distance),
  COUNT(*) FILTER (WHERE flag_written_at IS NOT NULL AND NOT computed_under_old_free_distance),
  COUNT(*) FILTER (WHERE flag_written_at IS NULL)
FROM quote_audit_log
`).Scan(&c.OldFreeDistance, &c.CurrentRules, &c.Pending)
	return c, errors.Wrap(err, "count audit flags")
}

func (s *Storage) ListFlagged(ctx context.Context, oldRule bool, limit, offset int) ([]*models.AuditLogEntry, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, quote_id, cart_id, request, quote, grand_total_ngn, computed_at,
       computed_under_old_free_distance, flag_written_at
FROM quote_audit_log
WHERE flag_written_at IS NOT NULL AND computed_under_old_free_distance = $1
ORDER BY seq
LIMIT $2 OFFSET $3
`, oldRule, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select flagged audit")
	}
	defer rows.Close()

	out := []*models.AuditLogEntry{}
	for rows.Next() {
		var (
			e           models.AuditLogEntry
			req, quote  []byte
			flagWritten *time.Time
		)
		if err := rows.Scan(
			&e.ID, &e.QuoteID, &e.CartID, &req, &quote, &e.GrandTotalNGN, &e.ComputedAt,
			&e.ComputedUnderOldFreeDistance, &flagWritten,
		); err != nil {
			return nil, errors.Wrap(err, "scan audit")
		}
		e.Request = req
		e.Quote = quote
		e.FlagWrittenAt = flagWritten
		out = append(out, &e)
	}
	return out, errors.Wrap(rows.Err(), "rows audit")
}

// GetAuditByQuoteID backs the admin audit lookup.
func (s *Storage) GetAuditByQuoteID(ctx context.Context, quoteID string) (*models.AuditLogEntry, error) {
	var (
		e           models.AuditLogEntry
		req, quote  []byte
		flagWritten *time.Time
	)
	err := s.db.QueryRow(ctx, `
SELECT id, quote_id, cart_id, request, quote, grand_total_ngn, computed_at,
       computed_under_old_free_distance, flag_written_at
FROM quote_audit_log WHERE quote_id = $1
`, quoteID).Scan(
		&e.ID, &e.QuoteID, &e.CartID, &req, &quote, &e.GrandTotalNGN, &e.ComputedAt,
		&e.ComputedUnderOldFreeDistance, &flagWritten,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.AuditNotFoundError{QuoteID: quoteID}
	}
	if err != nil {
		return nil, errors.Wrap(err, "select audit")
	}
	e.Request = req
	e.Quote = quote
	e.FlagWrittenAt = flagWritten
	return &e, nil
}
