// Package storage provides abstractions for persistent ledger data.
package storage

import (
	"context"
	"errors"
	"time"

	"splitledger/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// BalanceRow is one unsettled participation joined with its expense, as
// needed by balance aggregation: one row per unsettled share on every
// expense the user paid or participates in.
type BalanceRow struct {
	ExpenseID         string
	ExpenseAmount     int64
	CurrencyCode      string
	PayerUserID       string
	ParticipantUserID string
	Share             int64
}

// SettlementRow is a participant row joined with its expense currency, as
// loaded inside a settlement unit of work.
type SettlementRow struct {
	Participant       models.ExpenseParticipant
	ExpenseCurrencyID string
}

// SettlementTx is the unit of work for one settlement operation. All writes
// are staged inside the transaction; nothing is durable until Commit.
// Rollback after Commit is a no-op, so callers can defer it unconditionally.
type SettlementTx interface {
	// Participants loads the given participant rows with their expense
	// currencies, keyed by participant ID. Missing IDs are absent from
	// the result rather than an error.
	Participants(ctx context.Context, ids []string) (map[string]*SettlementRow, error)

	// InsertTransaction stages a new transaction row. The ID and
	// CreatedAt fields are populated by the store.
	InsertTransaction(ctx context.Context, txn *models.Transaction) error

	// MarkSettled stages the settlement fields on one participant row,
	// guarded by a compare-and-set on the row still being unsettled.
	// Returns false, without error, if the guard fails.
	MarkSettled(ctx context.Context, participantID, transactionID string, amount int64, currencyID string) (bool, error)

	Commit() error
	Rollback() error
}

// Store defines the interface for ledger storage operations. This
// abstraction keeps the engine independent of any specific persistence
// technology.
type Store interface {
	// Currencies.
	CreateCurrency(ctx context.Context, c *models.Currency) error
	GetCurrency(ctx context.Context, id string) (*models.Currency, error)
	GetCurrencyByCode(ctx context.Context, code string) (*models.Currency, error)
	ListCurrencies(ctx context.Context) ([]*models.Currency, error)

	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Groups.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error

	// Expenses. CreateExpense persists the expense together with its
	// participant rows; GetExpense returns both.
	CreateExpense(ctx context.Context, expense *models.Expense, participants []*models.ExpenseParticipant) error
	GetExpense(ctx context.Context, id string) (*models.Expense, []*models.ExpenseParticipant, error)
	ReplaceParticipants(ctx context.Context, expenseID string, participants []*models.ExpenseParticipant) error
	DeleteExpense(ctx context.Context, id string) error

	// ListBalanceRows returns every unsettled participation on expenses
	// the user paid or participates in.
	ListBalanceRows(ctx context.Context, userID string) ([]BalanceRow, error)

	// Conversion rates. Rows are append-only. LatestRate returns the rate
	// for (from, to) with the greatest effective timestamp at or before
	// asOf, or nil if no such row exists.
	CreateRate(ctx context.Context, rate *models.ConversionRate) error
	ListRates(ctx context.Context, fromCurrencyID, toCurrencyID string) ([]*models.ConversionRate, error)
	LatestRate(ctx context.Context, fromCurrencyID, toCurrencyID string, asOf time.Time) (*models.ConversionRate, error)

	// GetTransaction reads a committed settlement transaction.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// Begin opens a settlement unit of work.
	Begin(ctx context.Context) (SettlementTx, error)

	// Close releases any resources held by the store.
	Close() error
}
