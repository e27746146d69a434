package service

import (
	"context"
	"fmt"

	"splitledger/internal/models"
	"splitledger/internal/storage"
)

// CurrencyService manages currency reference data.
type CurrencyService struct {
	store storage.Store
}

// NewCurrencyService creates a new CurrencyService with the given storage backend.
func NewCurrencyService(store storage.Store) *CurrencyService {
	return &CurrencyService{store: store}
}

// CreateCurrency registers a currency. The minor-unit exponent is fixed for
// the currency's lifetime; amounts stored against it depend on the value.
func (s *CurrencyService) CreateCurrency(ctx context.Context, code, name string, minorUnits int32) (*models.Currency, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: currency code required", ErrInvalidInput)
	}
	if minorUnits < 0 || minorUnits > 6 {
		return nil, fmt.Errorf("%w: minor_units must be between 0 and 6", ErrInvalidInput)
	}

	currency := &models.Currency{
		Code:       code,
		Name:       name,
		MinorUnits: minorUnits,
	}
	if err := s.store.CreateCurrency(ctx, currency); err != nil {
		return nil, err
	}
	return currency, nil
}

// ListCurrencies returns all registered currencies ordered by code.
func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]*models.Currency, error) {
	return s.store.ListCurrencies(ctx)
}
