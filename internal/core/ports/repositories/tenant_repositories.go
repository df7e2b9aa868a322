package repositories

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// TenantReader defines read operations for tenants, companies and memberships
type TenantReader interface {
	FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error)
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)
	// FindMembership returns the user's membership in the tenant, or apperrors.ErrNotFound.
	FindMembership(ctx context.Context, userID, tenantID string) (*domain.Membership, error)
	ListCompanies(ctx context.Context, tenantID string) ([]domain.Company, error)
}

// TenantWriter defines write operations for tenants, companies and memberships
type TenantWriter interface {
	// SaveTenant inserts a tenant. A slug collision returns apperrors.ErrDuplicateCode.
	SaveTenant(ctx context.Context, tenant domain.Tenant) error
	// SaveCompany inserts a company. A code collision inside the tenant returns apperrors.ErrDuplicateCode.
	SaveCompany(ctx context.Context, company domain.Company) error
	// UpsertMembership creates or updates a user's role in a tenant.
	UpsertMembership(ctx context.Context, membership domain.Membership) error
}

// TenantRepositoryFacade combines all tenant-related repository interfaces
type TenantRepositoryFacade interface {
	TenantReader
	TenantWriter
}
