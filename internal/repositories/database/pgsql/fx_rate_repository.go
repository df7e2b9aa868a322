package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

type PgxFxRateRepository struct {
	db DBTX
}

var _ portsrepo.FxRateRepositoryFacade = (*PgxFxRateRepository)(nil)

const fxRateColumns = `rate_id, tenant_id, base_currency, quote_currency, rate, valid_from, valid_to, source,
		       created_at, created_by, last_updated_at, last_updated_by`

func scanFxRate(row pgx.Row) (domain.FxRate, error) {
	var fx domain.FxRate
	err := row.Scan(
		&fx.RateID, &fx.TenantID, &fx.BaseCurrency, &fx.QuoteCurrency, &fx.Rate, &fx.ValidFrom, &fx.ValidTo, &fx.Source,
		&fx.CreatedAt, &fx.CreatedBy, &fx.LastUpdatedAt, &fx.LastUpdatedBy,
	)
	return fx, err
}

func (r *PgxFxRateRepository) queryRates(ctx context.Context, query string, args ...any) ([]domain.FxRate, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "fx rates")
	}
	defer rows.Close()

	rates := []domain.FxRate{}
	for rows.Next() {
		fx, err := scanFxRate(rows)
		if err != nil {
			return nil, mapError(err, "fx rate row")
		}
		rates = append(rates, fx)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "fx rates")
	}
	return rates, nil
}

// LockPair takes a transaction-scoped advisory lock on the pair. Inserts of
// the same pair queue behind it, so the overlap check that follows sees
// every committed interval.
func (r *PgxFxRateRepository) LockPair(ctx context.Context, tenantID, base, quote string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, tenantID+"|"+base+"|"+quote)
	return mapError(err, "fx rate pair lock")
}

func (r *PgxFxRateRepository) SaveRate(ctx context.Context, rate domain.FxRate) error {
	query := `
		INSERT INTO fx_rates (` + fxRateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.db.Exec(ctx, query,
		rate.RateID, rate.TenantID, rate.BaseCurrency, rate.QuoteCurrency, rate.Rate, rate.ValidFrom, rate.ValidTo,
		rate.Source, rate.CreatedAt, rate.CreatedBy, rate.LastUpdatedAt, rate.LastUpdatedBy,
	)
	return mapError(err, "fx rate "+rate.BaseCurrency+"/"+rate.QuoteCurrency)
}

// FindRateAt uses half-open intervals: valid_from is inclusive, valid_to exclusive.
func (r *PgxFxRateRepository) FindRateAt(ctx context.Context, tenantID, base, quote string, at time.Time) (*domain.FxRate, error) {
	query := `
		SELECT ` + fxRateColumns + `
		FROM fx_rates
		WHERE tenant_id = $1 AND base_currency = $2 AND quote_currency = $3
		  AND valid_from <= $4 AND (valid_to IS NULL OR valid_to > $4)
		ORDER BY valid_from DESC
		LIMIT 1;
	`
	fx, err := scanFxRate(r.db.QueryRow(ctx, query, tenantID, base, quote, at))
	if err != nil {
		return nil, mapError(err, "fx rate")
	}
	return &fx, nil
}

func (r *PgxFxRateRepository) FindOverlapping(ctx context.Context, tenantID, base, quote string, from time.Time, to *time.Time) ([]domain.FxRate, error) {
	query := `
		SELECT ` + fxRateColumns + `
		FROM fx_rates
		WHERE tenant_id = $1 AND base_currency = $2 AND quote_currency = $3
		  AND valid_from < COALESCE($5::timestamptz, 'infinity')
		  AND COALESCE(valid_to, 'infinity') > $4
		ORDER BY valid_from;
	`
	return r.queryRates(ctx, query, tenantID, base, quote, from, to)
}

func (r *PgxFxRateRepository) ListRates(ctx context.Context, tenantID, base, quote string) ([]domain.FxRate, error) {
	query := `
		SELECT ` + fxRateColumns + `
		FROM fx_rates
		WHERE tenant_id = $1 AND base_currency = $2 AND quote_currency = $3
		ORDER BY valid_from;
	`
	return r.queryRates(ctx, query, tenantID, base, quote)
}
