// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"splitledger/internal/models"
	"splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCurrency persists a new currency.
func (s *SQLiteStore) CreateCurrency(ctx context.Context, c *models.Currency) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO currencies (id, code, name, minor_units, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Code, c.Name, c.MinorUnits, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert currency: %w", err)
	}
	return nil
}

// GetCurrency retrieves a currency by ID.
func (s *SQLiteStore) GetCurrency(ctx context.Context, id string) (*models.Currency, error) {
	return s.currencyBy(ctx, "id", id)
}

// GetCurrencyByCode retrieves a currency by its unique code.
func (s *SQLiteStore) GetCurrencyByCode(ctx context.Context, code string) (*models.Currency, error) {
	return s.currencyBy(ctx, "code", code)
}

func (s *SQLiteStore) currencyBy(ctx context.Context, column, value string) (*models.Currency, error) {
	c := &models.Currency{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, name, minor_units, created_at FROM currencies WHERE "+column+" = ?",
		value,
	).Scan(&c.ID, &c.Code, &c.Name, &c.MinorUnits, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("currency %s: %w", value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return c, nil
}

// ListCurrencies returns all currencies ordered by code.
func (s *SQLiteStore) ListCurrencies(ctx context.Context) ([]*models.Currency, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, minor_units, created_at FROM currencies ORDER BY code",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []*models.Currency
	for rows.Next() {
		c := &models.Currency{}
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.MinorUnits, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate currencies: %w", err)
	}
	return currencies, nil
}
