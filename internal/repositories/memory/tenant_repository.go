package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

type tenantRepository struct {
	st *state
}

var _ portsrepo.TenantRepositoryFacade = (*tenantRepository)(nil)

func membershipKey(userID, tenantID string) string {
	return userID + "|" + tenantID
}

func (r *tenantRepository) FindTenantByID(_ context.Context, tenantID string) (*domain.Tenant, error) {
	t, ok := r.st.tenants[tenantID]
	if !ok {
		return nil, apperrors.NewNotFoundError("tenant not found")
	}
	return &t, nil
}

func (r *tenantRepository) FindCompanyByID(_ context.Context, companyID string) (*domain.Company, error) {
	c, ok := r.st.companies[companyID]
	if !ok {
		return nil, apperrors.NewNotFoundError("company not found")
	}
	return &c, nil
}

func (r *tenantRepository) FindMembership(_ context.Context, userID, tenantID string) (*domain.Membership, error) {
	m, ok := r.st.memberships[membershipKey(userID, tenantID)]
	if !ok {
		return nil, apperrors.NewNotFoundError("membership not found")
	}
	return &m, nil
}

func (r *tenantRepository) ListCompanies(_ context.Context, tenantID string) ([]domain.Company, error) {
	var out []domain.Company
	for _, c := range r.st.companies {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Company) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}

func (r *tenantRepository) SaveTenant(_ context.Context, tenant domain.Tenant) error {
	for _, t := range r.st.tenants {
		if t.Slug == tenant.Slug {
			return apperrors.Newf(apperrors.CodeDuplicateCode, "tenant slug %q already exists", tenant.Slug)
		}
	}
	r.st.tenants[tenant.TenantID] = tenant
	return nil
}

func (r *tenantRepository) SaveCompany(_ context.Context, company domain.Company) error {
	for _, c := range r.st.companies {
		if c.TenantID == company.TenantID && c.Code == company.Code {
			return apperrors.Newf(apperrors.CodeDuplicateCode, "company code %q already exists", company.Code)
		}
	}
	r.st.companies[company.CompanyID] = company
	return nil
}

func (r *tenantRepository) UpsertMembership(_ context.Context, membership domain.Membership) error {
	r.st.memberships[membershipKey(membership.UserID, membership.TenantID)] = membership
	return nil
}
