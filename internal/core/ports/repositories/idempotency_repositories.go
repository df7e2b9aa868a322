package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// IdempotencyRepository stores idempotency records. It lives outside the
// unit of work so a claim is visible to concurrent callers before the
// command's own transaction commits.
type IdempotencyRepository interface {
	// Begin atomically evaluates domain.DecideBegin against the stored record
	// and, when the outcome is Fresh, persists domain.ClaimRecord(claim).
	// Two concurrent Begin calls for the same key never both get Fresh.
	Begin(ctx context.Context, claim domain.IdempotencyClaim) (domain.BeginResult, error)

	// Complete stores the response and marks the record completed, only if
	// token still holds the claim. Otherwise it returns apperrors.ErrIdempotencyConflict.
	Complete(ctx context.Context, tenantID, key, token string, response []byte, expiresAt time.Time) error

	// Fail releases the claim held by token so the same payload can be retried.
	Fail(ctx context.Context, tenantID, key, token string) error
}
