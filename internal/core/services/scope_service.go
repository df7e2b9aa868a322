package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
)

type scopeService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

var _ portssvc.ScopeSvc = (*scopeService)(nil)

// NewScopeService creates the resolver that turns token claims into a Scope.
func NewScopeService(uow portsrepo.UnitOfWork, base BaseService) portssvc.ScopeSvc {
	return &scopeService{BaseService: base, uow: uow}
}

// ResolveScope verifies the claims against stored tenants, companies and
// memberships. Every failure is reported as ScopeViolation so callers cannot
// discover which tenants or companies exist.
func (s *scopeService) ResolveScope(ctx context.Context, claims domain.Claims) (domain.Scope, error) {
	if claims.Subject == "" || claims.TenantID == "" {
		return domain.Scope{}, apperrors.New(apperrors.CodeScopeViolation, "claims must name an actor and a tenant")
	}

	var scope domain.Scope
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		tenant, err := repos.Tenants().FindTenantByID(ctx, claims.TenantID)
		if err != nil {
			return err
		}
		if !tenant.IsActive {
			return apperrors.New(apperrors.CodeScopeViolation, "tenant is inactive")
		}

		if claims.CompanyID != "" {
			company, err := repos.Tenants().FindCompanyByID(ctx, claims.CompanyID)
			if err != nil {
				return err
			}
			if company.TenantID != tenant.TenantID {
				return apperrors.New(apperrors.CodeScopeViolation, "company belongs to another tenant")
			}
		}

		membership, err := repos.Tenants().FindMembership(ctx, claims.Subject, tenant.TenantID)
		if err != nil {
			return err
		}
		if membership.Role == domain.RoleRemoved || !membership.Role.IsValidMemberRole() {
			return apperrors.New(apperrors.CodeScopeViolation, "actor is not a member of the tenant")
		}

		scope = domain.Scope{
			TenantID:  tenant.TenantID,
			CompanyID: claims.CompanyID,
			Actor:     claims.Subject,
			Role:      membership.Role,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Scope{}, apperrors.Wrap(apperrors.CodeScopeViolation, "claims do not resolve to a scope", err)
		}
		if apperrors.CodeOf(err) == apperrors.CodeInternal {
			s.LogError(ctx, err, "Failed to resolve scope", slog.String("tenant_id", claims.TenantID))
		}
		return domain.Scope{}, err
	}
	return scope, nil
}
