package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"splitledger/internal/models"
)

// CreateRate appends a new conversion rate row. The rate is stored as its
// exact decimal string representation.
func (s *SQLiteStore) CreateRate(ctx context.Context, rate *models.ConversionRate) error {
	if rate.ID == "" {
		rate.ID = uuid.New().String()
	}
	if rate.CreatedAt == 0 {
		rate.CreatedAt = time.Now().Unix()
	}
	if rate.EffectiveAt == 0 {
		rate.EffectiveAt = rate.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversion_rates (id, from_currency_id, to_currency_id, rate, effective_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rate.ID, rate.FromCurrencyID, rate.ToCurrencyID, rate.Rate.String(),
		rate.EffectiveAt, rate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion rate: %w", err)
	}
	return nil
}

// ListRates returns all rates for a currency pair, newest first.
func (s *SQLiteStore) ListRates(ctx context.Context, fromCurrencyID, toCurrencyID string) ([]*models.ConversionRate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_currency_id, to_currency_id, rate, effective_at, created_at
		 FROM conversion_rates
		 WHERE from_currency_id = ? AND to_currency_id = ?
		 ORDER BY effective_at DESC`,
		fromCurrencyID, toCurrencyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversion rates: %w", err)
	}
	defer rows.Close()

	var rates []*models.ConversionRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversion rates: %w", err)
	}
	return rates, nil
}

// LatestRate returns the rate for (from, to) with the greatest effective
// timestamp at or before asOf, or nil if no such row exists.
func (s *SQLiteStore) LatestRate(ctx context.Context, fromCurrencyID, toCurrencyID string, asOf time.Time) (*models.ConversionRate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, from_currency_id, to_currency_id, rate, effective_at, created_at
		 FROM conversion_rates
		 WHERE from_currency_id = ? AND to_currency_id = ? AND effective_at <= ?
		 ORDER BY effective_at DESC
		 LIMIT 1`,
		fromCurrencyID, toCurrencyID, asOf.Unix(),
	)

	rate, err := scanRate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func scanRate(row rowScanner) (*models.ConversionRate, error) {
	rate := &models.ConversionRate{}
	var rateStr string
	err := row.Scan(&rate.ID, &rate.FromCurrencyID, &rate.ToCurrencyID,
		&rateStr, &rate.EffectiveAt, &rate.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversion rate: %w", err)
	}
	rate.Rate, err = decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored rate %q: %w", rateStr, err)
	}
	return rate, nil
}
