package models

import "github.com/shopspring/decimal"

// ConversionRate stores the exchange rate between two currencies effective
// at a point in time. Rows are append-only; multiple rates per currency pair
// are ordered by EffectiveAt, and lookups pick the latest row at or before
// the requested instant.
type ConversionRate struct {
	// ID is the unique identifier for the rate row (UUID format).
	ID string

	// FromCurrencyID references the source currency.
	FromCurrencyID string

	// ToCurrencyID references the target currency.
	ToCurrencyID string

	// Rate is the positive multiplier converting a major-unit amount of
	// the source currency into the target currency.
	Rate decimal.Decimal

	// EffectiveAt is the Unix timestamp from which this rate applies.
	EffectiveAt int64

	// CreatedAt is the Unix timestamp when the row was recorded.
	CreatedAt int64
}
