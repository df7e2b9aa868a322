package services

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
)

// ScopeSvc turns authenticated claims into a verified Scope.
type ScopeSvc interface {
	ResolveScope(ctx context.Context, claims domain.Claims) (domain.Scope, error)
}

// TenantReaderSvc defines read operations for tenants and companies
type TenantReaderSvc interface {
	ListCompanies(ctx context.Context, scope domain.Scope) ([]domain.Company, error)
}

// TenantWriterSvc defines provisioning operations
type TenantWriterSvc interface {
	// CreateTenant requires a system scope and makes AdminUserID the first administrator.
	CreateTenant(ctx context.Context, scope domain.Scope, req dto.CreateTenantRequest) (*domain.Tenant, error)
	CreateCompany(ctx context.Context, scope domain.Scope, req dto.CreateCompanyRequest) (*domain.Company, error)
	AddMember(ctx context.Context, scope domain.Scope, req dto.AddMemberRequest) (*domain.Membership, error)
}

// TenantSvcFacade combines all tenant-related service interfaces
type TenantSvcFacade interface {
	TenantReaderSvc
	TenantWriterSvc
}
