package models

// Transaction records the settlement of one or more expense shares.
// Exactly one transaction is created per settlement operation; it is
// immutable afterward and may be referenced by many participant rows (the
// batch it cleared). Its lifetime is independent of those rows.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// Amount is the settled total in minor units of the settlement
	// currency: the sum of the converted share amounts in the batch.
	Amount int64

	// CurrencyID references the settlement currency.
	CurrencyID string

	// CreatedAt is the Unix timestamp when the settlement committed.
	CreatedAt int64
}
