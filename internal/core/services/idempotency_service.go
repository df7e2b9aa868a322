package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/crypto/blake2b"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/ids"
)

const maxIdempotencyKeyLen = 255

// IdempotencyConfig sets claim lifetimes and how long a duplicate waits for
// the first caller to finish.
type IdempotencyConfig struct {
	ClaimTTL        time.Duration
	ResultTTL       time.Duration
	WaitTimeout     time.Duration
	PollInterval    time.Duration
	PollMaxInterval time.Duration
}

func (c IdempotencyConfig) normalized() IdempotencyConfig {
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 5 * time.Minute
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = 24 * time.Hour
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 10 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Millisecond
	}
	if c.PollMaxInterval <= c.PollInterval {
		c.PollMaxInterval = 250 * time.Millisecond
	}
	return c
}

type idempotencyService struct {
	BaseService
	repo portsrepo.IdempotencyRepository
	cfg  IdempotencyConfig
}

var _ portssvc.IdempotencySvc = (*idempotencyService)(nil)

// NewIdempotencyService creates the idempotency store service.
func NewIdempotencyService(repo portsrepo.IdempotencyRepository, cfg IdempotencyConfig, base BaseService) portssvc.IdempotencySvc {
	return &idempotencyService{BaseService: base, repo: repo, cfg: cfg.normalized()}
}

// HashPayload fingerprints a command, the company and actor issuing it, and
// its payload. Records are tenant wide, so a key reused from another company
// or by another user is a conflict rather than a replay.
func HashPayload(scope domain.Scope, command string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "payload could not be encoded", err)
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "hash init failed", err)
	}
	for _, part := range []string{scope.CompanyID, scope.Actor, command} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func validateKey(scope domain.Scope, key string) error {
	if scope.TenantID == "" {
		return apperrors.New(apperrors.CodeScopeViolation, "idempotency keys are tenant scoped")
	}
	if key == "" || len(key) > maxIdempotencyKeyLen {
		return apperrors.NewValidationError("idempotency key must be 1-255 characters")
	}
	return nil
}

func (s *idempotencyService) Begin(ctx context.Context, scope domain.Scope, key, payloadHash string) (domain.BeginResult, error) {
	if err := validateKey(scope, key); err != nil {
		return domain.BeginResult{}, err
	}
	now := s.Now()
	claim := domain.IdempotencyClaim{
		TenantID:    scope.TenantID,
		Key:         key,
		PayloadHash: payloadHash,
		Token:       ids.NewToken(),
		Now:         now,
		ExpiresAt:   now.Add(s.cfg.ClaimTTL),
	}
	res, err := s.repo.Begin(ctx, claim)
	if err != nil {
		return domain.BeginResult{}, err
	}
	return res, nil
}

func (s *idempotencyService) Await(ctx context.Context, scope domain.Scope, key, payloadHash string) (domain.BeginResult, error) {
	policy := retrypolicy.NewBuilder[domain.BeginResult]().
		HandleIf(func(res domain.BeginResult, err error) bool {
			return err == nil && res.Outcome == domain.BeginInFlight
		}).
		WithBackoff(s.cfg.PollInterval, s.cfg.PollMaxInterval).
		WithMaxRetries(-1).
		WithMaxDuration(s.cfg.WaitTimeout).
		ReturnLastFailure().
		Build()

	res, err := failsafe.With[domain.BeginResult](policy).WithContext(ctx).Get(func() (domain.BeginResult, error) {
		return s.Begin(ctx, scope, key, payloadHash)
	})
	if err != nil {
		return domain.BeginResult{}, err
	}
	if res.Outcome == domain.BeginInFlight {
		s.LogInfo(ctx, "Idempotent command still in flight after wait", slog.String("idempotency_key", key))
		return domain.BeginResult{}, apperrors.New(apperrors.CodeUnavailable, "a command with this idempotency key is still in progress")
	}
	return res, nil
}

func (s *idempotencyService) Complete(ctx context.Context, scope domain.Scope, key, token string, result any) error {
	body, err := json.Marshal(result)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "result could not be encoded", err)
	}
	_, err = withRetry(ctx, &s.BaseService, "idempotency.complete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.repo.Complete(ctx, scope.TenantID, key, token, body, s.Now().Add(s.cfg.ResultTTL))
	})
	return err
}

func (s *idempotencyService) Fail(ctx context.Context, scope domain.Scope, key, token string) error {
	return s.repo.Fail(ctx, scope.TenantID, key, token)
}

// runIdempotent executes fn at most once per (tenant, key, payload hash). A
// duplicate submission receives the cached result of the first; a
// concurrent duplicate waits for it. An empty key runs fn directly.
func runIdempotent[T any](
	ctx context.Context,
	base *BaseService,
	idem portssvc.IdempotencySvc,
	scope domain.Scope,
	key, command string,
	payload any,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	if key == "" || idem == nil {
		return fn(ctx)
	}

	hash, err := HashPayload(scope, command, payload)
	if err != nil {
		return zero, err
	}
	res, err := idem.Await(ctx, scope, key, hash)
	if err != nil {
		return zero, err
	}

	switch res.Outcome {
	case domain.BeginConflict:
		base.Metrics.IdempotencyOutcome(command, "conflict")
		return zero, apperrors.Newf(apperrors.CodeIdempotencyConflict, "idempotency key %q was already used with a different payload", key)
	case domain.BeginCompleted:
		var cached T
		if err := json.Unmarshal(res.Response, &cached); err != nil {
			return zero, apperrors.Wrap(apperrors.CodeInternal, "cached result could not be decoded", err)
		}
		base.Metrics.IdempotencyOutcome(command, "replayed")
		base.LogDebug(ctx, "Replayed idempotent command", slog.String("command", command), slog.String("idempotency_key", key))
		return cached, nil
	case domain.BeginFresh:
	default:
		return zero, apperrors.Newf(apperrors.CodeInternal, "unexpected idempotency outcome %s", res.Outcome)
	}

	// the claim must be settled even if the caller has gone away
	settleCtx := context.WithoutCancel(ctx)

	result, err := fn(ctx)
	if err != nil {
		if failErr := idem.Fail(settleCtx, scope, key, res.Token); failErr != nil {
			base.LogError(ctx, failErr, "Failed to release idempotency claim", slog.String("idempotency_key", key))
		}
		base.Metrics.IdempotencyOutcome(command, "failed")
		return zero, err
	}

	if err := idem.Complete(settleCtx, scope, key, res.Token, result); err != nil {
		// the effect is committed; a retry after claim expiry could repeat it
		base.LogError(ctx, err, "Failed to record idempotent result", slog.String("command", command), slog.String("idempotency_key", key))
	}
	base.Metrics.IdempotencyOutcome(command, "fresh")
	return result, nil
}
