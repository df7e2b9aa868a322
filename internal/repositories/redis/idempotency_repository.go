// Package redis keeps idempotency records in Redis so several API replicas
// share them without a database round trip.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

const (
	keyPrefix   = "idem"
	lockTTL     = 5 * time.Second
	minTTL      = time.Minute
	lockTries   = 50
	lockBackoff = 10 * time.Millisecond
)

// IdempotencyRepository serialises read-modify-write of one key behind a
// redislock lock on that key.
type IdempotencyRepository struct {
	client *goredis.Client
	locker *redislock.Client
}

var _ portsrepo.IdempotencyRepository = (*IdempotencyRepository)(nil)

func NewIdempotencyRepository(client *goredis.Client) *IdempotencyRepository {
	return &IdempotencyRepository{client: client, locker: redislock.New(client)}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func recordKey(tenantID, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, tenantID, key)
}

// withLock runs fn while holding the per-key lock. A lock that cannot be
// obtained is reported as transient.
func (r *IdempotencyRepository) withLock(ctx context.Context, rk string, fn func() error) error {
	lock, err := r.locker.Obtain(ctx, "lock:"+rk, lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockBackoff), lockTries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return apperrors.Transient("idempotency key is locked", err)
	}
	if err != nil {
		return apperrors.Transient("failed to lock idempotency key", err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()
	return fn()
}

func (r *IdempotencyRepository) load(ctx context.Context, rk string) (*domain.IdempotencyRecord, error) {
	raw, err := r.client.Get(ctx, rk).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Transient("failed to read idempotency key", err)
	}
	var rec domain.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "corrupt idempotency record", err)
	}
	return &rec, nil
}

// store writes rec with a TTL following its expiry. Expiry decisions are made
// on ExpiresAt, the TTL only keeps Redis from collecting stale keys.
func (r *IdempotencyRepository) store(ctx context.Context, rk string, rec domain.IdempotencyRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to encode idempotency record", err)
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl < minTTL {
		ttl = minTTL
	}
	if err := r.client.Set(ctx, rk, raw, ttl).Err(); err != nil {
		return apperrors.Transient("failed to write idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) Begin(ctx context.Context, claim domain.IdempotencyClaim) (domain.BeginResult, error) {
	rk := recordKey(claim.TenantID, claim.Key)
	var result domain.BeginResult
	err := r.withLock(ctx, rk, func() error {
		existing, err := r.load(ctx, rk)
		if err != nil {
			return err
		}
		result = domain.DecideBegin(existing, claim)
		if result.Outcome != domain.BeginFresh {
			return nil
		}
		return r.store(ctx, rk, domain.ClaimRecord(claim))
	})
	return result, err
}

func (r *IdempotencyRepository) Complete(ctx context.Context, tenantID, key, token string, response []byte, expiresAt time.Time) error {
	rk := recordKey(tenantID, key)
	return r.withLock(ctx, rk, func() error {
		rec, err := r.load(ctx, rk)
		if err != nil {
			return err
		}
		if rec == nil || rec.Token != token || rec.Status != domain.IdempotencyProcessing {
			return apperrors.New(apperrors.CodeIdempotencyConflict, "idempotency claim is no longer held")
		}
		rec.Status = domain.IdempotencyCompleted
		rec.Response = response
		rec.ExpiresAt = expiresAt
		return r.store(ctx, rk, *rec)
	})
}

func (r *IdempotencyRepository) Fail(ctx context.Context, tenantID, key, token string) error {
	rk := recordKey(tenantID, key)
	return r.withLock(ctx, rk, func() error {
		rec, err := r.load(ctx, rk)
		if err != nil {
			return err
		}
		if rec == nil || rec.Token != token || rec.Status != domain.IdempotencyProcessing {
			return nil
		}
		rec.Status = domain.IdempotencyFailed
		return r.store(ctx, rk, *rec)
	})
}
