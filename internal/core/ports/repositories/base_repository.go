package repositories

import (
	"context"
)

// Repositories is the set of repositories bound to one unit of work. Every
// call made through it sees the same snapshot and commits or rolls back together.
type Repositories interface {
	Tenants() TenantRepositoryFacade
	Accounts() AccountRepositoryFacade
	Journals() JournalRepositoryFacade
	FxRates() FxRateRepositoryFacade
	Audit() AuditRepositoryFacade
}

// UnitOfWork defines methods for transaction management
type UnitOfWork interface {
	// WithinTx runs fn atomically. Returning an error rolls back every write
	// made through repos. Implementations surface contention as transient
	// errors (apperrors.IsTransient) so callers can retry.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	// Read runs fn against committed state. fn must not write.
	Read(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
