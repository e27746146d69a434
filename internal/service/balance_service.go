package service

import (
	"context"

	"splitledger/internal/calculator"
	"splitledger/internal/storage"
)

// BalanceService aggregates a user's unsettled participations into
// per-currency balances. Read-only; safe to run concurrently with
// settlements.
type BalanceService struct {
	store storage.Store
}

// NewBalanceService creates a new BalanceService with the given storage backend.
func NewBalanceService(store storage.Store) *BalanceService {
	return &BalanceService{store: store}
}

// BalancesFor returns the user's balances, one entry per currency with at
// least one relevant unsettled record, ordered by currency code.
func (s *BalanceService) BalancesFor(ctx context.Context, userID string) ([]calculator.CurrencyBalance, error) {
	rows, err := s.store.ListBalanceRows(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Regroup the flat rows by expense for the aggregator. Rows arrive
	// ordered by expense ID.
	var expenses []calculator.ExpenseForBalance
	byID := make(map[string]int)
	for _, r := range rows {
		i, ok := byID[r.ExpenseID]
		if !ok {
			i = len(expenses)
			byID[r.ExpenseID] = i
			expenses = append(expenses, calculator.ExpenseForBalance{
				CurrencyCode: r.CurrencyCode,
				Amount:       r.ExpenseAmount,
				PayerID:      r.PayerUserID,
			})
		}
		expenses[i].Shares = append(expenses[i].Shares, calculator.ShareForBalance{
			UserID: r.ParticipantUserID,
			Share:  r.Share,
		})
	}

	return calculator.BalancesFor(userID, expenses), nil
}
