package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
)

// FxRateReaderSvc defines read operations for the FX rate timeline
type FxRateReaderSvc interface {
	// RateAt returns the rate for base->quote valid at the given instant.
	RateAt(ctx context.Context, scope domain.Scope, base, quote string, at time.Time) (*domain.FxRate, error)
	ListRates(ctx context.Context, scope domain.Scope, base, quote string) ([]domain.FxRate, error)
}

// FxRateWriterSvc defines write operations for the FX rate timeline
type FxRateWriterSvc interface {
	// AddRate inserts a rate, failing with OverlappingInterval if its interval meets an existing one.
	AddRate(ctx context.Context, scope domain.Scope, req dto.AddFxRateRequest) (*domain.FxRate, error)
}

// FxRateSvcFacade combines all FX rate service interfaces
type FxRateSvcFacade interface {
	FxRateReaderSvc
	FxRateWriterSvc
}
