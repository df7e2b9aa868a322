package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// FxRateReader defines read operations for FX rate data
type FxRateReader interface {
	// FindRateAt returns the rate for the pair whose interval contains at, or apperrors.ErrNotFound.
	FindRateAt(ctx context.Context, tenantID, base, quote string, at time.Time) (*domain.FxRate, error)

	// FindOverlapping returns stored rates for the pair intersecting [from, to). A nil to is open-ended.
	FindOverlapping(ctx context.Context, tenantID, base, quote string, from time.Time, to *time.Time) ([]domain.FxRate, error)

	// ListRates returns all rates of a pair ordered by valid_from.
	ListRates(ctx context.Context, tenantID, base, quote string) ([]domain.FxRate, error)
}

// FxRateWriter defines write operations for FX rate data
type FxRateWriter interface {
	// LockPair serialises writers of one currency pair until the unit of work ends.
	LockPair(ctx context.Context, tenantID, base, quote string) error

	SaveRate(ctx context.Context, rate domain.FxRate) error
}

// FxRateRepositoryFacade combines all FX rate repository interfaces
type FxRateRepositoryFacade interface {
	FxRateReader
	FxRateWriter
}
