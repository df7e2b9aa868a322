package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

// PgxIdempotencyRepository keeps idempotency records in their own short
// transactions on the pool, outside any command's unit of work.
type PgxIdempotencyRepository struct {
	pool *pgxpool.Pool
}

var _ portsrepo.IdempotencyRepository = (*PgxIdempotencyRepository)(nil)

func NewIdempotencyRepository(pool *pgxpool.Pool) *PgxIdempotencyRepository {
	return &PgxIdempotencyRepository{pool: pool}
}

// Begin inserts the claim if the key is new; otherwise it locks the existing
// row and lets domain.DecideBegin judge it. Concurrent callers queue on the
// row lock, so at most one of them sees Fresh.
func (r *PgxIdempotencyRepository) Begin(ctx context.Context, claim domain.IdempotencyClaim) (domain.BeginResult, error) {
	var result domain.BeginResult
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		record := domain.ClaimRecord(claim)
		tag, err := tx.Exec(ctx, `
			INSERT INTO idempotency_keys (tenant_id, idempotency_key, payload_hash, status, claim_token,
			                              created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tenant_id, idempotency_key) DO NOTHING;
		`, record.TenantID, record.Key, record.PayloadHash, record.Status, record.Token, record.CreatedAt, record.ExpiresAt)
		if err != nil {
			return mapError(err, "idempotency key")
		}
		if tag.RowsAffected() == 1 {
			result = domain.BeginResult{Outcome: domain.BeginFresh, Token: claim.Token}
			return nil
		}

		var existing domain.IdempotencyRecord
		err = tx.QueryRow(ctx, `
			SELECT tenant_id, idempotency_key, payload_hash, status, claim_token, response, created_at, expires_at
			FROM idempotency_keys
			WHERE tenant_id = $1 AND idempotency_key = $2
			FOR UPDATE;
		`, claim.TenantID, claim.Key).Scan(
			&existing.TenantID, &existing.Key, &existing.PayloadHash, &existing.Status, &existing.Token,
			&existing.Response, &existing.CreatedAt, &existing.ExpiresAt,
		)
		if err != nil {
			return mapError(err, "idempotency key")
		}

		result = domain.DecideBegin(&existing, claim)
		if result.Outcome != domain.BeginFresh {
			return nil
		}
		// expired or failed: take the key over
		_, err = tx.Exec(ctx, `
			UPDATE idempotency_keys
			SET payload_hash = $3, status = $4, claim_token = $5, response = NULL, created_at = $6, expires_at = $7
			WHERE tenant_id = $1 AND idempotency_key = $2;
		`, record.TenantID, record.Key, record.PayloadHash, record.Status, record.Token, record.CreatedAt, record.ExpiresAt)
		return mapError(err, "idempotency key")
	})
	if err != nil {
		return domain.BeginResult{}, mapError(err, "idempotency key")
	}
	return result, nil
}

func (r *PgxIdempotencyRepository) Complete(ctx context.Context, tenantID, key, token string, response []byte, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $4, response = $5, expires_at = $6
		WHERE tenant_id = $1 AND idempotency_key = $2 AND claim_token = $3 AND status = $7;
	`, tenantID, key, token, domain.IdempotencyCompleted, response, expiresAt, domain.IdempotencyProcessing)
	if err != nil {
		return mapError(err, "idempotency key")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeIdempotencyConflict, "idempotency claim is no longer held")
	}
	return nil
}

// Fail is a no-op when the claim was already taken over.
func (r *PgxIdempotencyRepository) Fail(ctx context.Context, tenantID, key, token string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $4
		WHERE tenant_id = $1 AND idempotency_key = $2 AND claim_token = $3 AND status = $5;
	`, tenantID, key, token, domain.IdempotencyFailed, domain.IdempotencyProcessing)
	return mapError(err, "idempotency key")
}
