package models

import (
	"encoding/json"
	"time"
)

// AuditLogEntry is an immutable record of a computed quote.
// ComputedUnderOldFreeDistance is written once by the migration and only
// used for historical reporting.
type AuditLogEntry struct {
	ID                           string          `json:"id"`
	QuoteID                      string          `json:"quote_id"`
	CartID                       string          `json:"cart_id"`
	Request                      json.RawMessage `json:"request"`
	Quote                        json.RawMessage `json:"quote"`
	GrandTotalNGN                int64           `json:"grand_total_ngn"`
	ComputedAt                   time.Time       `json:"computed_at"`
	ComputedUnderOldFreeDistance bool            `json:"computed_under_old_free_distance"`
	FlagWrittenAt                *time.Time      `json:"flag_written_at,omitempty"`
}

type AuditFlagCounts struct {
	OldFreeDistance int64 `json:"old_free_distance"`
	CurrentRules    int64 `json:"current_rules"`
	Pending         int64 `json:"pending"`
}
