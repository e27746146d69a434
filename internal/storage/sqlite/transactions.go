package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"splitledger/internal/models"
	"splitledger/internal/storage"
)

// GetTransaction retrieves a committed settlement transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, amount, currency_id, created_at FROM transactions WHERE id = ?",
		id,
	).Scan(&txn.ID, &txn.Amount, &txn.CurrencyID, &txn.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// Begin opens a settlement unit of work backed by a database transaction.
func (s *SQLiteStore) Begin(ctx context.Context) (storage.SettlementTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &settlementTx{tx: tx}, nil
}

// settlementTx implements storage.SettlementTx over a sql.Tx. Every write is
// staged inside the transaction; a failed commit or an explicit rollback
// leaves no trace.
type settlementTx struct {
	tx   *sql.Tx
	done bool
}

// Participants loads participant rows with their expense currencies, keyed
// by participant ID. Missing IDs are simply absent from the result.
func (t *settlementTx) Participants(ctx context.Context, ids []string) (map[string]*storage.SettlementRow, error) {
	if len(ids) == 0 {
		return make(map[string]*storage.SettlementRow), nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := t.tx.QueryContext(ctx,
		`SELECT p.id, p.expense_id, p.user_id, p.share,
		        p.settled_transaction_id, p.settled_amount, p.settled_currency_id,
		        e.currency_id
		 FROM expense_participants p
		 JOIN expenses e ON e.id = p.expense_id
		 WHERE p.id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*storage.SettlementRow, len(ids))
	for rows.Next() {
		row := &storage.SettlementRow{}
		p := &row.Participant
		var txnID, currencyID sql.NullString
		var amount sql.NullInt64
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.UserID, &p.Share,
			&txnID, &amount, &currencyID, &row.ExpenseCurrencyID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		if txnID.Valid {
			p.SettledTransactionID = txnID.String
			p.SettledAmount = amount.Int64
			p.SettledCurrencyID = currencyID.String
		}
		result[p.ID] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return result, nil
}

// InsertTransaction stages a new transaction row, filling ID and CreatedAt.
func (t *settlementTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}

	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO transactions (id, amount, currency_id, created_at) VALUES (?, ?, ?, ?)",
		txn.ID, txn.Amount, txn.CurrencyID, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// MarkSettled stages the settlement fields on one participant row. The
// update only applies while settled_transaction_id is still null; a false
// return means another settlement claimed the row.
func (t *settlementTx) MarkSettled(ctx context.Context, participantID, transactionID string, amount int64, currencyID string) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE expense_participants
		 SET settled_transaction_id = ?, settled_amount = ?, settled_currency_id = ?
		 WHERE id = ? AND settled_transaction_id IS NULL`,
		transactionID, amount, currencyID, participantID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark participant settled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check settle result: %w", err)
	}
	return affected == 1, nil
}

// Commit makes all staged writes durable.
func (t *settlementTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	t.done = true
	return nil
}

// Rollback discards all staged writes. Safe to call after Commit.
func (t *settlementTx) Rollback() error {
	if t.done {
		return nil
	}
	return t.tx.Rollback()
}
