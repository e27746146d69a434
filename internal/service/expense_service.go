// Package service implements the boundary between transport DTOs and the
// ledger engine: typed inputs are validated here so the core never sees
// malformed amounts or inconsistent participant sets.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"splitledger/internal/calculator"
	"splitledger/internal/models"
	"splitledger/internal/settlement"
	"splitledger/internal/storage"
)

// ErrInvalidInput wraps all boundary validation failures.
var ErrInvalidInput = errors.New("invalid input")

// CreateExpenseInput is the validated request to record an expense.
// ParticipantUserIDs is ordered; the order decides which participants carry
// the split remainder and is preserved in storage.
type CreateExpenseInput struct {
	Description        string
	Amount             int64 // minor units of the expense currency
	CurrencyID         string
	GroupID            string // empty for a personal expense
	PayerUserID        string
	ParticipantUserIDs []string
	Date               int64 // unix seconds; zero means now
}

// ExpenseService records and revises expenses, running the split calculator
// at creation time.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

func (s *ExpenseService) validate(ctx context.Context, in *CreateExpenseInput) error {
	if in.Description == "" {
		return fmt.Errorf("%w: description required", ErrInvalidInput)
	}
	// A payer-less expense has no balance semantics; reject at creation.
	if in.PayerUserID == "" {
		return fmt.Errorf("%w: payer_user_id required", ErrInvalidInput)
	}
	payerParticipates := false
	for _, id := range in.ParticipantUserIDs {
		if id == in.PayerUserID {
			payerParticipates = true
			break
		}
	}
	if !payerParticipates {
		return fmt.Errorf("%w: payer %q must be one of the participants", ErrInvalidInput, in.PayerUserID)
	}
	if _, err := s.store.GetCurrency(ctx, in.CurrencyID); err != nil {
		return err
	}
	return nil
}

// CreateExpense validates the input, splits the amount into exact shares and
// persists the expense with its participant rows. Participants not yet in
// the target group are added to it.
func (s *ExpenseService) CreateExpense(ctx context.Context, in *CreateExpenseInput) (*models.Expense, []*models.ExpenseParticipant, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, nil, err
	}

	shares, err := calculator.Split(in.Amount, in.ParticipantUserIDs)
	if err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		Description: in.Description,
		Amount:      in.Amount,
		CurrencyID:  in.CurrencyID,
		GroupID:     in.GroupID,
		PayerID:     in.PayerUserID,
		Date:        in.Date,
	}
	participants := make([]*models.ExpenseParticipant, len(in.ParticipantUserIDs))
	for i, userID := range in.ParticipantUserIDs {
		participants[i] = &models.ExpenseParticipant{
			UserID: userID,
			Share:  shares[i],
		}
	}

	if in.GroupID != "" {
		if _, err := s.store.GetGroup(ctx, in.GroupID); err != nil {
			return nil, nil, err
		}
	}

	if err := s.store.CreateExpense(ctx, expense, participants); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, nil, err
	}

	s.addParticipantsToGroup(ctx, expense.GroupID, in.ParticipantUserIDs)

	return expense, participants, nil
}

// addParticipantsToGroup joins expense participants to the owning group.
// Failures are logged but do not fail the expense; membership can be fixed
// out of band.
func (s *ExpenseService) addParticipantsToGroup(ctx context.Context, groupID string, userIDs []string) {
	if groupID == "" {
		return
	}
	if err := s.store.AddGroupMembers(ctx, groupID, userIDs); err != nil {
		slog.Error("failed to add expense participants to group", "group_id", groupID, "error", err)
	}
}

// GetExpense retrieves an expense with its participant rows.
func (s *ExpenseService) GetExpense(ctx context.Context, id string) (*models.Expense, []*models.ExpenseParticipant, error) {
	return s.store.GetExpense(ctx, id)
}

// ReviseParticipants replaces the participant set of an expense and re-runs
// the split over the new ordered list. Only allowed while every share of the
// expense is unsettled.
func (s *ExpenseService) ReviseParticipants(ctx context.Context, expenseID string, participantUserIDs []string) ([]*models.ExpenseParticipant, error) {
	expense, existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.Settled() {
			return nil, fmt.Errorf("expense %s: %w", expenseID, settlement.ErrAlreadySettled)
		}
	}

	payerParticipates := false
	for _, id := range participantUserIDs {
		if id == expense.PayerID {
			payerParticipates = true
			break
		}
	}
	if !payerParticipates {
		return nil, fmt.Errorf("%w: payer %q must remain a participant", ErrInvalidInput, expense.PayerID)
	}

	shares, err := calculator.Split(expense.Amount, participantUserIDs)
	if err != nil {
		return nil, err
	}

	participants := make([]*models.ExpenseParticipant, len(participantUserIDs))
	for i, userID := range participantUserIDs {
		participants[i] = &models.ExpenseParticipant{
			UserID: userID,
			Share:  shares[i],
		}
	}
	if err := s.store.ReplaceParticipants(ctx, expenseID, participants); err != nil {
		slog.Error("ReviseParticipants failed", "expense_id", expenseID, "error", err)
		return nil, err
	}

	s.addParticipantsToGroup(ctx, expense.GroupID, participantUserIDs)

	return participants, nil
}

// DeleteExpense removes an expense and its shares. Expenses with settled
// shares are immutable history and cannot be deleted.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	_, participants, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range participants {
		if p.Settled() {
			return fmt.Errorf("expense %s: %w", id, settlement.ErrAlreadySettled)
		}
	}
	return s.store.DeleteExpense(ctx, id)
}
