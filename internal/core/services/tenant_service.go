package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/ids"
)

const defaultFiscalYearEnd = "12-31"

type tenantService struct {
	BaseService
	uow   portsrepo.UnitOfWork
	audit portssvc.AuditRecorder
}

var _ portssvc.TenantSvcFacade = (*tenantService)(nil)

// NewTenantService creates the provisioning service for tenants, companies and memberships.
func NewTenantService(uow portsrepo.UnitOfWork, audit portssvc.AuditRecorder, base BaseService) portssvc.TenantSvcFacade {
	return &tenantService{BaseService: base, uow: uow, audit: audit}
}

type provisionedTenant struct {
	Tenant domain.Tenant     `json:"tenant"`
	Admin  domain.Membership `json:"admin"`
}

func (s *tenantService) CreateTenant(ctx context.Context, scope domain.Scope, req dto.CreateTenantRequest) (*domain.Tenant, error) {
	if err := scope.Require(domain.RoleSystem); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	now := s.Now()
	tenant := domain.Tenant{
		TenantID: ids.New(ids.PrefixTenant),
		Name:     req.Name,
		Slug:     req.Slug,
		Features: req.Features,
		IsActive: true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     scope.Actor,
			LastUpdatedAt: now,
			LastUpdatedBy: scope.Actor,
		},
	}
	admin := domain.Membership{
		UserID:   req.AdminUserID,
		TenantID: tenant.TenantID,
		Role:     domain.RoleAdmin,
		JoinedAt: now,
	}

	_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
		Action:     domain.ActionCreate,
		EntityType: domain.EntityTenant,
		Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
			if err := repos.Tenants().SaveTenant(ctx, tenant); err != nil {
				return domain.AuditChange{}, err
			}
			if err := repos.Tenants().UpsertMembership(ctx, admin); err != nil {
				return domain.AuditChange{}, err
			}
			return domain.AuditChange{
				EntityID:    tenant.TenantID,
				TenantID:    tenant.TenantID,
				TenantLevel: true,
				After:       provisionedTenant{Tenant: tenant, Admin: admin},
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Tenant provisioned", slog.String("tenant_id", tenant.TenantID), slog.String("slug", tenant.Slug))
	return &tenant, nil
}

func (s *tenantService) CreateCompany(ctx context.Context, scope domain.Scope, req dto.CreateCompanyRequest) (*domain.Company, error) {
	if scope.TenantID == "" {
		return nil, apperrors.New(apperrors.CodeScopeViolation, "operation requires a tenant scope")
	}
	if err := scope.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !domain.IsCurrencyCode(req.BaseCurrency) {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid base currency %q", req.BaseCurrency)
	}
	fiscalYearEnd := req.FiscalYearEnd
	if fiscalYearEnd == "" {
		fiscalYearEnd = defaultFiscalYearEnd
	}
	if _, err := time.Parse("01-02", fiscalYearEnd); err != nil {
		return nil, apperrors.Newf(apperrors.CodeValidation, "fiscal year end %q must be MM-DD", fiscalYearEnd)
	}

	now := s.Now()
	company := domain.Company{
		CompanyID:     ids.New(ids.PrefixCompany),
		TenantID:      scope.TenantID,
		Code:          req.Code,
		Name:          req.Name,
		BaseCurrency:  req.BaseCurrency,
		FiscalYearEnd: fiscalYearEnd,
		IsActive:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     scope.Actor,
			LastUpdatedAt: now,
			LastUpdatedBy: scope.Actor,
		},
	}

	_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
		Action:     domain.ActionCreate,
		EntityType: domain.EntityCompany,
		Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
			if _, err := repos.Tenants().FindTenantByID(ctx, scope.TenantID); err != nil {
				return domain.AuditChange{}, err
			}
			if err := repos.Tenants().SaveCompany(ctx, company); err != nil {
				return domain.AuditChange{}, err
			}
			return domain.AuditChange{EntityID: company.CompanyID, CompanyID: company.CompanyID, After: company}, nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Company created", slog.String("company_id", company.CompanyID))
	return &company, nil
}

func (s *tenantService) AddMember(ctx context.Context, scope domain.Scope, req dto.AddMemberRequest) (*domain.Membership, error) {
	if scope.TenantID == "" {
		return nil, apperrors.New(apperrors.CodeScopeViolation, "operation requires a tenant scope")
	}
	if err := scope.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !req.Role.IsValidMemberRole() {
		return nil, apperrors.Newf(apperrors.CodeValidation, "role %s cannot be granted", req.Role)
	}

	membership := domain.Membership{
		UserID:   req.UserID,
		TenantID: scope.TenantID,
		Role:     req.Role,
		JoinedAt: s.Now(),
	}

	_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
		Action:     domain.ActionUpdate,
		EntityType: domain.EntityMembership,
		Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
			var before *domain.Membership
			existing, err := repos.Tenants().FindMembership(ctx, req.UserID, scope.TenantID)
			switch {
			case err == nil:
				if existing.Role == req.Role {
					membership = *existing
					return domain.AuditChange{Skip: true}, nil
				}
				before = existing
				membership.JoinedAt = existing.JoinedAt
			case !errors.Is(err, apperrors.ErrNotFound):
				return domain.AuditChange{}, err
			}

			if err := repos.Tenants().UpsertMembership(ctx, membership); err != nil {
				return domain.AuditChange{}, err
			}
			change := domain.AuditChange{
				EntityID:    fmt.Sprintf("%s/%s", scope.TenantID, req.UserID),
				TenantLevel: true,
				After:       membership,
			}
			if before != nil {
				change.Before = before
			}
			return change, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (s *tenantService) ListCompanies(ctx context.Context, scope domain.Scope) ([]domain.Company, error) {
	if scope.TenantID == "" {
		return nil, apperrors.New(apperrors.CodeScopeViolation, "operation requires a tenant scope")
	}
	if err := scope.Require(domain.RoleReadOnly); err != nil {
		return nil, err
	}

	var companies []domain.Company
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		companies, err = repos.Tenants().ListCompanies(ctx, scope.TenantID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	if companies == nil {
		return []domain.Company{}, nil
	}
	return companies, nil
}
