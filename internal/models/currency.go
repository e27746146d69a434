package models

// Currency represents a supported currency.
// A currency is immutable once an expense references it; in particular the
// minor-unit exponent must never change, since stored amounts depend on it.
type Currency struct {
	// ID is the unique identifier for the currency (UUID format).
	ID string

	// Code is the ISO-like currency code (e.g., "USD"). Unique.
	Code string

	// Name is the display name (e.g., "US Dollar").
	Name string

	// MinorUnits is the minor-unit exponent: the number of decimal places
	// of the currency's smallest denomination (2 for cents, 0 for yen).
	MinorUnits int32

	// CreatedAt is the Unix timestamp when the currency was registered.
	CreatedAt int64
}
