package messages

import "time"

// QuoteComputed is published after a non-preview quote is computed.
type QuoteComputed struct {
	QuoteID       string          `json:"quote_id"`
	CartID        string          `json:"cart_id"`
	DeliveryType  string          `json:"delivery_type"`
	GrandTotalNGN int64           `json:"grand_total_ngn"`
	Shipments     []ShipmentTotal `json:"shipments"`
	Tags          []string        `json:"tags,omitempty"`
	ETAMinMinutes int             `json:"eta_min_minutes"`
	ETAMaxMinutes int             `json:"eta_max_minutes"`
	ComputedAt    time.Time       `json:"computed_at"`
}

type ShipmentTotal struct {
	PickupLocationID string   `json:"pickup_location_id"`
	OriginZone       string   `json:"origin_zone"`
	DestinationZone  string   `json:"destination_zone"`
	FeeNGN           int64    `json:"fee_ngn"`
	AppliedRules     []string `json:"applied_rules"`
}
