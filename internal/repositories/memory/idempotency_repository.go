package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

const sweepInterval = time.Minute

// IdempotencyRepository keeps records in a map guarded by its own mutex, so
// a claim never waits on a running unit of work. Expired records are swept
// from Begin at most once per sweepInterval.
type IdempotencyRepository struct {
	mu        sync.Mutex
	records   map[string]domain.IdempotencyRecord // tenantID|key
	nextSweep time.Time
}

var _ portsrepo.IdempotencyRepository = (*IdempotencyRepository)(nil)

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{records: make(map[string]domain.IdempotencyRecord)}
}

func recordKey(tenantID, key string) string {
	return tenantID + "|" + key
}

func (r *IdempotencyRepository) Begin(_ context.Context, claim domain.IdempotencyClaim) (domain.BeginResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(claim.Now)
	k := recordKey(claim.TenantID, claim.Key)
	var existing *domain.IdempotencyRecord
	if rec, ok := r.records[k]; ok {
		existing = &rec
	}
	res := domain.DecideBegin(existing, claim)
	if res.Outcome == domain.BeginFresh {
		r.records[k] = domain.ClaimRecord(claim)
	}
	return res, nil
}

func (r *IdempotencyRepository) sweep(now time.Time) {
	if now.Before(r.nextSweep) {
		return
	}
	for k, rec := range r.records {
		if !rec.ExpiresAt.After(now) {
			delete(r.records, k)
		}
	}
	r.nextSweep = now.Add(sweepInterval)
}

func (r *IdempotencyRepository) Complete(_ context.Context, tenantID, key, token string, response []byte, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := recordKey(tenantID, key)
	rec, ok := r.records[k]
	if !ok || rec.Token != token {
		return apperrors.New(apperrors.CodeIdempotencyConflict, "idempotency claim is no longer held")
	}
	rec.Status = domain.IdempotencyCompleted
	rec.Response = slices.Clone(response)
	rec.ExpiresAt = expiresAt
	r.records[k] = rec
	return nil
}

func (r *IdempotencyRepository) Fail(_ context.Context, tenantID, key, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := recordKey(tenantID, key)
	rec, ok := r.records[k]
	if !ok || rec.Token != token {
		return nil
	}
	rec.Status = domain.IdempotencyFailed
	r.records[k] = rec
	return nil
}
