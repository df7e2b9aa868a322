package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the Postgres unit of work and idempotency store.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UnitOfWork:      NewUnitOfWork(dbPool),
		IdempotencyRepo: NewIdempotencyRepository(dbPool),
	}
}
