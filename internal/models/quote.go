package models

import "time"

const (
	DeliveryStandard = "standard"
	DeliveryExpress  = "express"
	DeliverySameDay  = "same_day"
)

// DeliveryTypeOrder is the order delivery options are listed in a quote.
var DeliveryTypeOrder = []string{DeliveryStandard, DeliveryExpress, DeliverySameDay}

const (
	PaymentCard     = "card"
	PaymentCOD      = "cod"
	PaymentTransfer = "transfer"
	PaymentWallet   = "wallet"
)

const (
	TagFreeShipping  = "free_shipping"
	TagBlockDelivery = "block_delivery"
	TagCrossZone     = "cross_zone"
)

// TagOrder fixes the order of tags on a quote.
var TagOrder = []string{TagFreeShipping, TagBlockDelivery, TagCrossZone}

type Dimensions struct {
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
}

type CartItem struct {
	ProductID        string      `json:"product_id"`
	Quantity         int         `json:"quantity"`
	Price            int64       `json:"price"`
	WeightKg         *float64    `json:"weight_kg,omitempty"`
	Dimensions       *Dimensions `json:"dimensions,omitempty"`
	PickupLocationID string      `json:"pickup_location_id"`
	PickupCoords     LatLng      `json:"pickup_coords"`
}

// RiderSnapshot is the rider availability around a zone at request time.
type RiderSnapshot struct {
	ActiveRiders int `json:"active_riders"`
	QueuedJobs   int `json:"queued_jobs"`
}

type DeliveryQuoteRequest struct {
	CartID                 string         `json:"cart_id"`
	SubtotalNGN            int64          `json:"subtotal_ngn"`
	Items                  []CartItem     `json:"items"`
	PaymentMethod          string         `json:"payment_method"`
	DeliveryCoords         LatLng         `json:"delivery_coords"`
	DeliveryType           string         `json:"delivery_type"`
	AlternateDeliveryTypes []string       `json:"alternate_delivery_types,omitempty"`
	RequestedAt            time.Time      `json:"requested_at"`
	Riders                 *RiderSnapshot `json:"riders,omitempty"`
	// ZoneRiders pins the rider snapshot per origin zone. The audit log
	// stores the snapshots a quote was computed with here.
	ZoneRiders map[string]RiderSnapshot `json:"zone_riders,omitempty"`
}

// FeeBreakdown lines are whole NGN. Total is the shipment fee after
// overrides; FreeShippingDiscount holds what free shipping waived.
type FeeBreakdown struct {
	BaseFee              int64   `json:"base_fee"`
	DistanceFee          int64   `json:"distance_fee"`
	WeightSurcharge      int64   `json:"weight_surcharge"`
	Insurance            int64   `json:"insurance"`
	CrossZoneFee         int64   `json:"cross_zone_fee"`
	CODSurcharge         int64   `json:"cod_surcharge"`
	Subtotal             int64   `json:"subtotal"`
	Multiplier           float64 `json:"multiplier"`
	FreeShippingDiscount int64   `json:"free_shipping_discount,omitempty"`
	Total                int64   `json:"total"`
}

type ETAWindow struct {
	MinMinutes int    `json:"min_minutes"`
	MaxMinutes int    `json:"max_minutes"`
	Text       string `json:"text"`
}

type Shipment struct {
	PickupLocationID  string       `json:"pickup_location_id"`
	PickupCoords      LatLng       `json:"pickup_coords"`
	OriginZone        string       `json:"origin_zone"`
	DestinationZone   string       `json:"destination_zone"`
	DistanceKm        float64      `json:"distance_km"`
	BillableKm        float64      `json:"billable_km"`
	EffectiveWeightKg float64      `json:"effective_weight_kg"`
	DeclaredValue     int64        `json:"declared_value"`
	Fees              FeeBreakdown `json:"fees"`
	FeeNGN            int64        `json:"fee_ngn"`
	ETA               ETAWindow    `json:"eta"`
	AppliedRules      []string     `json:"applied_rules"`
	Tags              []string     `json:"tags,omitempty"`
}

type DeliveryOption struct {
	DeliveryType  string    `json:"delivery_type"`
	GrandTotalNGN int64     `json:"grand_total_ngn"`
	ETA           ETAWindow `json:"eta"`
}

type Quote struct {
	QuoteID         string           `json:"quote_id"`
	CartID          string           `json:"cart_id"`
	DeliveryType    string           `json:"delivery_type"`
	GrandTotalNGN   int64            `json:"grand_total_ngn"`
	PerShipmentFees []Shipment       `json:"per_shipment_fees"`
	DeliveryOptions []DeliveryOption `json:"delivery_options"`
	ETA             ETAWindow        `json:"eta"`
	Tags            []string         `json:"tags"`
	ComputedAt      time.Time        `json:"computed_at"`
	Preview         bool             `json:"preview,omitempty"`
}
