// Package settlement implements the atomic multi-participant settlement
// protocol: converting a batch of expense shares into a single transaction
// and clearing them, all-or-none, inside one storage unit of work.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"splitledger/internal/models"
	"splitledger/internal/storage"
)

var (
	// ErrAlreadySettled is returned when any participant in the batch has
	// already been cleared by a transaction. Settled is terminal.
	ErrAlreadySettled = errors.New("participant already settled")

	// ErrConcurrentModification is returned when another settlement
	// claimed a participant row between load and commit. The caller may
	// retry; nothing was written.
	ErrConcurrentModification = errors.New("participant settled concurrently")
)

// RateResolver is the conversion lookup the coordinator depends on.
type RateResolver interface {
	Rate(ctx context.Context, fromCurrencyID, toCurrencyID string, asOf time.Time) (decimal.Decimal, error)
}

// CurrencySource resolves currencies by ID, for the settlement currency's
// minor-unit exponent and for the source currencies of the batch.
type CurrencySource interface {
	GetCurrency(ctx context.Context, id string) (*models.Currency, error)
}

// Coordinator orchestrates settlement operations. It holds no state of its
// own; each Settle call is an independent unit of work and the coordinator
// may be shared by concurrent request handlers.
type Coordinator struct {
	store      storage.Store
	currencies CurrencySource
	rates      RateResolver
	now        func() time.Time
}

// NewCoordinator creates a settlement coordinator.
func NewCoordinator(store storage.Store, rates RateResolver) *Coordinator {
	return &Coordinator{
		store:      store,
		currencies: store,
		rates:      rates,
		now:        time.Now,
	}
}

// Settle converts and clears the given participant shares into a single new
// transaction in the settlement currency.
//
// The whole batch succeeds or nothing persists: a missing participant, an
// already-settled row, an unresolvable rate, or a row claimed by a
// concurrent settlement all abort the unit of work before commit. The
// returned participant snapshots are ordered like the input IDs.
func (c *Coordinator) Settle(ctx context.Context, participantIDs []string, currencyID string) (*models.Transaction, []*models.ExpenseParticipant, error) {
	if len(participantIDs) == 0 {
		return nil, nil, fmt.Errorf("participant ids: %w", storage.ErrNotFound)
	}

	currency, err := c.currencies.GetCurrency(ctx, currencyID)
	if err != nil {
		return nil, nil, err
	}

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Participants(ctx, participantIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range participantIDs {
		row, ok := rows[id]
		if !ok {
			return nil, nil, fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
		}
		if row.Participant.Settled() {
			return nil, nil, fmt.Errorf("participant %s: %w", id, ErrAlreadySettled)
		}
	}

	// Resolve every rate before writing anything, so a missing rate
	// leaves no partial conversion state.
	asOf := c.now()
	settled := make(map[string]int64, len(participantIDs))
	var total int64
	for _, id := range participantIDs {
		row := rows[id]
		rate, err := c.rates.Rate(ctx, row.ExpenseCurrencyID, currencyID, asOf)
		if err != nil {
			return nil, nil, err
		}
		amount, err := c.convert(ctx, row, rate, currency)
		if err != nil {
			return nil, nil, err
		}
		settled[id] = amount
		total += amount
	}

	txn := &models.Transaction{
		Amount:     total,
		CurrencyID: currencyID,
	}
	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return nil, nil, err
	}

	for _, id := range participantIDs {
		ok, err := tx.MarkSettled(ctx, id, txn.ID, settled[id], currencyID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			slog.Warn("settlement lost race for participant", "participant_id", id)
			return nil, nil, fmt.Errorf("participant %s: %w", id, ErrConcurrentModification)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	participants := make([]*models.ExpenseParticipant, len(participantIDs))
	for i, id := range participantIDs {
		p := rows[id].Participant
		p.SettledTransactionID = txn.ID
		p.SettledAmount = settled[id]
		p.SettledCurrencyID = currencyID
		participants[i] = &p
	}
	return txn, participants, nil
}

// convert turns one share into minor units of the settlement currency,
// rounding half-even at the settlement currency's minor-unit exponent.
// Half-even avoids systematic bias when many small settlements accumulate.
func (c *Coordinator) convert(ctx context.Context, row *storage.SettlementRow, rate decimal.Decimal, to *models.Currency) (int64, error) {
	from, err := c.currencies.GetCurrency(ctx, row.ExpenseCurrencyID)
	if err != nil {
		return 0, err
	}

	// Share is in minor units of the source currency; the rate applies to
	// major-unit amounts.
	major := decimal.New(row.Participant.Share, -from.MinorUnits)
	converted := major.Mul(rate).RoundBank(to.MinorUnits)
	return converted.Shift(to.MinorUnits).IntPart(), nil
}
