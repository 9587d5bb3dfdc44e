package models

import "fmt"

// NoCoverageError: точка не попадает ни в одну активную зону.
type NoCoverageError struct {
	Point LatLng
	Role  string // "pickup" | "delivery"
}

func (e *NoCoverageError) Error() string {
	return fmt.Sprintf("no delivery coverage for %s point (%.5f, %.5f)", e.Role, e.Point.Lat, e.Point.Lng)
}

func (e *NoCoverageError) Retryable() bool { return false }

// ZoneSuspendedError is returned when block_delivery fires. It stays
// non-retryable until an administrator resumes the zone.
type ZoneSuspendedError struct {
	ZoneCode string
}

func (e *ZoneSuspendedError) Error() string {
	return fmt.Sprintf("delivery zone %s is suspended", e.ZoneCode)
}

func (e *ZoneSuspendedError) Retryable() bool { return false }

type InvalidCartPartitionError struct {
	PickupLocationID string
	Reason           string
}

func (e *InvalidCartPartitionError) Error() string {
	if e.PickupLocationID == "" {
		return "invalid cart: " + e.Reason
	}
	return fmt.Sprintf("invalid cart partition for pickup location %s: %s", e.PickupLocationID, e.Reason)
}

func (e *InvalidCartPartitionError) Retryable() bool { return false }

// UnsupportedDeliveryTypeError: тип доставки не знает ни одна таблица множителей.
type UnsupportedDeliveryTypeError struct {
	DeliveryType string
}

func (e *UnsupportedDeliveryTypeError) Error() string {
	return fmt.Sprintf("unsupported delivery type %q", e.DeliveryType)
}

func (e *UnsupportedDeliveryTypeError) Retryable() bool { return false }

// ConfigurationMissingError is an internal data-integrity fault. Detail is
// for logs only and must not reach the caller.
type ConfigurationMissingError struct {
	ZoneCode string
	What     string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("zone %s: missing %s configuration", e.ZoneCode, e.What)
}

func (e *ConfigurationMissingError) Retryable() bool { return false }

// ZoneNotFoundError is returned by administration calls for unknown codes.
type ZoneNotFoundError struct {
	ZoneCode string
}

func (e *ZoneNotFoundError) Error() string {
	return fmt.Sprintf("delivery zone %s not found", e.ZoneCode)
}

type AuditNotFoundError struct {
	QuoteID string
}

func (e *AuditNotFoundError) Error() string {
	return fmt.Sprintf("no audit record for quote %s", e.QuoteID)
}
