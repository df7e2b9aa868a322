package memory

import (
	"context"
	"slices"
	"time"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

type fxRateRepository struct {
	st *state
}

var _ portsrepo.FxRateRepositoryFacade = (*fxRateRepository)(nil)

func (r *fxRateRepository) pair(tenantID, base, quote string) []domain.FxRate {
	var out []domain.FxRate
	for _, rate := range r.st.rates {
		if rate.TenantID == tenantID && rate.BaseCurrency == base && rate.QuoteCurrency == quote {
			out = append(out, rate)
		}
	}
	slices.SortFunc(out, func(a, b domain.FxRate) int { return a.ValidFrom.Compare(b.ValidFrom) })
	return out
}

func (r *fxRateRepository) FindRateAt(_ context.Context, tenantID, base, quote string, at time.Time) (*domain.FxRate, error) {
	for _, rate := range r.pair(tenantID, base, quote) {
		if rate.Contains(at) {
			return &rate, nil
		}
	}
	return nil, apperrors.NewNotFoundError("rate not found")
}

func (r *fxRateRepository) FindOverlapping(_ context.Context, tenantID, base, quote string, from time.Time, to *time.Time) ([]domain.FxRate, error) {
	var out []domain.FxRate
	for _, rate := range r.pair(tenantID, base, quote) {
		if rate.Overlaps(from, to) {
			out = append(out, rate)
		}
	}
	return out, nil
}

func (r *fxRateRepository) ListRates(_ context.Context, tenantID, base, quote string) ([]domain.FxRate, error) {
	return r.pair(tenantID, base, quote), nil
}

// LockPair is a no-op: the store mutex already serialises units of work.
func (r *fxRateRepository) LockPair(context.Context, string, string, string) error {
	return nil
}

func (r *fxRateRepository) SaveRate(_ context.Context, rate domain.FxRate) error {
	r.st.rates[rate.RateID] = rate
	return nil
}
