package models

// Expense represents a paid amount split among participants.
// Amount and currency are immutable after creation; the participant set may
// be revised until any share of the expense is settled.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is a short human-readable label.
	Description string

	// Amount is the expense total in minor units of its currency.
	Amount int64

	// CurrencyID references the currency the expense was paid in.
	CurrencyID string

	// GroupID references the owning group. Empty for a personal expense.
	GroupID string

	// PayerID references the user who paid. The payer must be one of the
	// expense's participants.
	PayerID string

	// Date is the Unix timestamp of when the expense occurred.
	Date int64

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ExpenseParticipant is one participant's exact share of an expense.
// For a fixed expense the shares of all its participants sum to the expense
// amount exactly. The three Settled* fields are either all set (the share is
// cleared) or all zero (the share is outstanding).
type ExpenseParticipant struct {
	// ID is the unique identifier for the participation (UUID format).
	ID string

	// ExpenseID references the owning expense.
	ExpenseID string

	// UserID references the participating user.
	UserID string

	// Share is this participant's portion in minor units of the expense
	// currency.
	Share int64

	// SettledTransactionID references the transaction that cleared this
	// share. Empty while unsettled.
	SettledTransactionID string

	// SettledAmount is the cleared amount in minor units of the
	// settlement currency. Zero while unsettled.
	SettledAmount int64

	// SettledCurrencyID references the settlement currency. Empty while
	// unsettled.
	SettledCurrencyID string
}

// Settled reports whether this share has been cleared by a transaction.
func (p *ExpenseParticipant) Settled() bool {
	return p.SettledTransactionID != ""
}
