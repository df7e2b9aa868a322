package repositories

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves an account by id. Returns apperrors.ErrNotFound when absent.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByCode looks up an account by its code inside a company.
	FindAccountByCode(ctx context.Context, tenantID, companyID, code string) (*domain.Account, error)

	// LockAccountsByIDs fetches accounts by id, preventing concurrent changes to
	// them until the unit of work ends. Missing ids are absent from the map.
	LockAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a page of accounts for a company ordered by code.
	ListAccounts(ctx context.Context, tenantID, companyID string, limit, offset int) ([]domain.Account, error)

	// CountLinesByAccount counts journal lines (draft or posted) referencing the account.
	CountLinesByAccount(ctx context.Context, accountID string) (int, error)

	// CountChildAccounts counts accounts whose parent is accountID.
	CountChildAccounts(ctx context.Context, accountID string) (int, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount inserts a new account. A code collision returns apperrors.ErrDuplicateCode.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates mutable fields (name, parent, active flag, description).
	UpdateAccount(ctx context.Context, account domain.Account) error

	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
