package services

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// IdempotencySvc guards commands against duplicate effects.
type IdempotencySvc interface {
	// Begin claims key for the payload hash. See domain.DecideBegin for outcomes.
	Begin(ctx context.Context, scope domain.Scope, key, payloadHash string) (domain.BeginResult, error)

	// Await is Begin that keeps waiting while another caller holds the claim.
	// It returns Unavailable if the claim is still in flight after the wait timeout.
	Await(ctx context.Context, scope domain.Scope, key, payloadHash string) (domain.BeginResult, error)

	// Complete caches result (JSON-encoded) for key.
	Complete(ctx context.Context, scope domain.Scope, key, token string, result any) error

	// Fail releases the claim so the command can be retried.
	Fail(ctx context.Context, scope domain.Scope, key, token string) error
}
