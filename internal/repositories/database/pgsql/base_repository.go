package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

// DBTX is the part of pgx shared by the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// SQLSTATE codes the adapter translates.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// mapError converts driver errors into application errors. what names the
// thing being read or written and ends up in the caller-visible detail.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFoundError(what + " not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return apperrors.Transient("concurrent update on "+what, err)
		case pgUniqueViolation:
			return apperrors.Wrap(apperrors.CodeDuplicateCode, what+" already exists", err)
		case pgForeignKeyViolation:
			return apperrors.Wrap(apperrors.CodeReferencedEntity, what+" is referenced by other records", err)
		case pgCheckViolation:
			return apperrors.Wrap(apperrors.CodeValidation, what+" violates constraint "+pgErr.ConstraintName, err)
		}
	}
	return apperrors.Wrap(apperrors.CodeInternal, "failed to access "+what, err)
}

// UnitOfWork runs each unit in a SERIALIZABLE transaction. Postgres aborts
// one side of a conflicting pair with 40001, which surfaces as a transient
// error so the service layer retries it.
type UnitOfWork struct {
	Pool *pgxpool.Pool
}

var _ portsrepo.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{Pool: pool}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.Repositories) error) error {
	return u.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn, true)
}

func (u *UnitOfWork) Read(ctx context.Context, fn func(ctx context.Context, repos portsrepo.Repositories) error) error {
	return u.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn, false)
}

func (u *UnitOfWork) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, repos portsrepo.Repositories) error, commit bool) error {
	tx, err := u.Pool.BeginTx(ctx, opts)
	if err != nil {
		return mapError(err, "transaction")
	}
	defer func() {
		// Rollback after Commit is a no-op returning pgx.ErrTxClosed.
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(ctx, newRepos(tx)); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "transaction")
	}
	return nil
}

type repos struct {
	db DBTX
}

func newRepos(db DBTX) *repos {
	return &repos{db: db}
}

func (r *repos) Tenants() portsrepo.TenantRepositoryFacade   { return &PgxTenantRepository{db: r.db} }
func (r *repos) Accounts() portsrepo.AccountRepositoryFacade { return &PgxAccountRepository{db: r.db} }
func (r *repos) Journals() portsrepo.JournalRepositoryFacade { return &PgxJournalRepository{db: r.db} }
func (r *repos) FxRates() portsrepo.FxRateRepositoryFacade   { return &PgxFxRateRepository{db: r.db} }
func (r *repos) Audit() portsrepo.AuditRepositoryFacade      { return &PgxAuditRepository{db: r.db} }

// nullIfEmpty stores empty optional ids as NULL so foreign keys stay valid.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func commandFailed(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(what + " not found")
	}
	return nil
}
