package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"splitledger/internal/models"
	"splitledger/internal/storage"
)

// CreateExpense persists an expense together with its participant rows in a
// single transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, participants []*models.ExpenseParticipant) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount, currency_id, group_id, payer_user_id, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, expense.Amount, expense.CurrencyID,
		nullableString(expense.GroupID), expense.PayerID, expense.Date, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertParticipants(ctx, tx, expense.ID, participants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, expenseID string, participants []*models.ExpenseParticipant) error {
	for _, p := range participants {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.ExpenseID = expenseID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expense_participants (id, expense_id, user_id, share)
			 VALUES (?, ?, ?, ?)`,
			p.ID, p.ExpenseID, p.UserID, p.Share,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense and its participant rows.
// Participants are returned in insertion order, the same order the split
// calculator produced their shares in.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, []*models.ExpenseParticipant, error) {
	expense := &models.Expense{}
	var groupID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, amount, currency_id, group_id, payer_user_id, date, created_at
		 FROM expenses WHERE id = ?`,
		id,
	).Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.CurrencyID,
		&groupID, &expense.PayerID, &expense.Date, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if groupID.Valid {
		expense.GroupID = groupID.String
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expense_id, user_id, share, settled_transaction_id, settled_amount, settled_currency_id
		 FROM expense_participants WHERE expense_id = ? ORDER BY rowid`,
		id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.ExpenseParticipant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, nil, err
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return expense, participants, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*models.ExpenseParticipant, error) {
	p := &models.ExpenseParticipant{}
	var txnID, currencyID sql.NullString
	var amount sql.NullInt64
	err := row.Scan(&p.ID, &p.ExpenseID, &p.UserID, &p.Share, &txnID, &amount, &currencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}
	if txnID.Valid {
		p.SettledTransactionID = txnID.String
		p.SettledAmount = amount.Int64
		p.SettledCurrencyID = currencyID.String
	}
	return p, nil
}

// ReplaceParticipants swaps the participant set of an expense. The caller is
// responsible for verifying the expense is wholly unsettled; the delete is
// still guarded so settled rows can never be removed here.
func (s *SQLiteStore) ReplaceParticipants(ctx context.Context, expenseID string, participants []*models.ExpenseParticipant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM expense_participants WHERE expense_id = ? AND settled_transaction_id IS NULL",
		expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}

	if err := insertParticipants(ctx, tx, expenseID, participants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense; its participant rows cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListBalanceRows returns every unsettled participation on expenses the user
// paid or participates in, joined with the expense and its currency code.
func (s *SQLiteStore) ListBalanceRows(ctx context.Context, userID string) ([]storage.BalanceRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.amount, c.code, e.payer_user_id, p.user_id, p.share
		 FROM expense_participants p
		 JOIN expenses e ON e.id = p.expense_id
		 JOIN currencies c ON c.id = e.currency_id
		 WHERE p.settled_transaction_id IS NULL
		   AND e.id IN (
		       SELECT expense_id FROM expense_participants WHERE user_id = ?
		       UNION
		       SELECT id FROM expenses WHERE payer_user_id = ?
		   )
		 ORDER BY e.id, p.rowid`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance rows: %w", err)
	}
	defer rows.Close()

	var result []storage.BalanceRow
	for rows.Next() {
		var r storage.BalanceRow
		if err := rows.Scan(&r.ExpenseID, &r.ExpenseAmount, &r.CurrencyCode,
			&r.PayerUserID, &r.ParticipantUserID, &r.Share); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance rows: %w", err)
	}
	return result, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
