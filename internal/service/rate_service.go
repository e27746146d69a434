package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"splitledger/internal/models"
	"splitledger/internal/rates"
	"splitledger/internal/storage"
)

// RateService manages conversion-rate reference data and exposes the
// resolver's view of it.
type RateService struct {
	store    storage.Store
	resolver *rates.Resolver
}

// NewRateService creates a new RateService over the given store.
func NewRateService(store storage.Store, resolver *rates.Resolver) *RateService {
	return &RateService{store: store, resolver: resolver}
}

// CreateRate appends a conversion rate row after validating both currencies
// exist and the rate is positive.
func (s *RateService) CreateRate(ctx context.Context, fromCurrencyID, toCurrencyID string, rate decimal.Decimal, effectiveAt int64) (*models.ConversionRate, error) {
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: rate must be positive", ErrInvalidInput)
	}
	if fromCurrencyID == toCurrencyID {
		return nil, fmt.Errorf("%w: from and to currency must differ", ErrInvalidInput)
	}
	for _, id := range []string{fromCurrencyID, toCurrencyID} {
		if _, err := s.store.GetCurrency(ctx, id); err != nil {
			return nil, err
		}
	}

	row := &models.ConversionRate{
		FromCurrencyID: fromCurrencyID,
		ToCurrencyID:   toCurrencyID,
		Rate:           rate,
		EffectiveAt:    effectiveAt,
	}
	if err := s.store.CreateRate(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// ListRates returns the stored rate rows for a pair, newest first.
func (s *RateService) ListRates(ctx context.Context, fromCurrencyID, toCurrencyID string) ([]*models.ConversionRate, error) {
	return s.store.ListRates(ctx, fromCurrencyID, toCurrencyID)
}

// LatestRate returns the applicable rate for a pair as of the given time,
// through the resolver, so the reciprocal fallback applies here too.
func (s *RateService) LatestRate(ctx context.Context, fromCurrencyID, toCurrencyID string, asOf time.Time) (decimal.Decimal, error) {
	return s.resolver.Rate(ctx, fromCurrencyID, toCurrencyID, asOf)
}
