// Package rates resolves currency conversion rates from stored,
// timestamped rate rows.
package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"splitledger/internal/models"
)

// ErrRateNotFound is returned when no eligible rate exists for a currency
// pair in either direction.
var ErrRateNotFound = errors.New("no conversion rate for currency pair")

// RateSource provides the latest stored rate for a currency pair at or
// before a point in time, or nil when none exists.
type RateSource interface {
	LatestRate(ctx context.Context, fromCurrencyID, toCurrencyID string, asOf time.Time) (*models.ConversionRate, error)
}

// Resolver looks up the applicable exchange rate between two currencies.
// It performs reads only and is safe for concurrent use.
type Resolver struct {
	source RateSource
}

// NewResolver creates a resolver over the given rate source.
func NewResolver(source RateSource) *Resolver {
	return &Resolver{source: source}
}

// Rate returns the multiplier converting amounts from one currency to
// another as of the given instant.
//
// A same-currency conversion is always 1 and never queries the source.
// Otherwise the latest (from, to) rate effective at or before asOf wins;
// failing that, the reciprocal of the latest (to, from) rate is used.
func (r *Resolver) Rate(ctx context.Context, fromCurrencyID, toCurrencyID string, asOf time.Time) (decimal.Decimal, error) {
	if fromCurrencyID == toCurrencyID {
		return decimal.NewFromInt(1), nil
	}

	direct, err := r.source.LatestRate(ctx, fromCurrencyID, toCurrencyID, asOf)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to look up rate: %w", err)
	}
	if direct != nil {
		return direct.Rate, nil
	}

	reverse, err := r.source.LatestRate(ctx, toCurrencyID, fromCurrencyID, asOf)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to look up reverse rate: %w", err)
	}
	if reverse != nil {
		return decimal.NewFromInt(1).Div(reverse.Rate), nil
	}

	return decimal.Decimal{}, fmt.Errorf("%s to %s: %w", fromCurrencyID, toCurrencyID, ErrRateNotFound)
}
