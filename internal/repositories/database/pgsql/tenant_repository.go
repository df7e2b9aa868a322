package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

type PgxTenantRepository struct {
	db DBTX
}

var _ portsrepo.TenantRepositoryFacade = (*PgxTenantRepository)(nil)

func (r *PgxTenantRepository) SaveTenant(ctx context.Context, tenant domain.Tenant) error {
	query := `
		INSERT INTO tenants (tenant_id, name, slug, features, is_active,
		                     created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	features := tenant.Features
	if features == nil {
		features = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		tenant.TenantID, tenant.Name, tenant.Slug, features, tenant.IsActive,
		tenant.CreatedAt, tenant.CreatedBy, tenant.LastUpdatedAt, tenant.LastUpdatedBy,
	)
	return mapError(err, "tenant "+tenant.Slug)
}

func (r *PgxTenantRepository) FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	query := `
		SELECT tenant_id, name, slug, features, is_active,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM tenants
		WHERE tenant_id = $1;
	`
	var t domain.Tenant
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&t.TenantID, &t.Name, &t.Slug, &t.Features, &t.IsActive,
		&t.CreatedAt, &t.CreatedBy, &t.LastUpdatedAt, &t.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapError(err, "tenant")
	}
	if len(t.Features) == 0 {
		t.Features = nil
	}
	return &t, nil
}

const companyColumns = `company_id, tenant_id, code, name, base_currency, fiscal_year_end, is_active,
		       created_at, created_by, last_updated_at, last_updated_by`

func scanCompany(row pgx.Row) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(
		&c.CompanyID, &c.TenantID, &c.Code, &c.Name, &c.BaseCurrency, &c.FiscalYearEnd, &c.IsActive,
		&c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy,
	)
	return c, err
}

func (r *PgxTenantRepository) SaveCompany(ctx context.Context, company domain.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		company.CompanyID, company.TenantID, company.Code, company.Name, company.BaseCurrency,
		company.FiscalYearEnd, company.IsActive,
		company.CreatedAt, company.CreatedBy, company.LastUpdatedAt, company.LastUpdatedBy,
	)
	return mapError(err, "company "+company.Code)
}

func (r *PgxTenantRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE company_id = $1;`
	c, err := scanCompany(r.db.QueryRow(ctx, query, companyID))
	if err != nil {
		return nil, mapError(err, "company")
	}
	return &c, nil
}

func (r *PgxTenantRepository) ListCompanies(ctx context.Context, tenantID string) ([]domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE tenant_id = $1 ORDER BY code;`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, mapError(err, "companies")
	}
	defer rows.Close()

	companies := []domain.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, mapError(err, "company row")
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "companies")
	}
	return companies, nil
}

func (r *PgxTenantRepository) FindMembership(ctx context.Context, userID, tenantID string) (*domain.Membership, error) {
	query := `
		SELECT user_id, tenant_id, role, joined_at
		FROM memberships
		WHERE user_id = $1 AND tenant_id = $2;
	`
	var m domain.Membership
	err := r.db.QueryRow(ctx, query, userID, tenantID).Scan(&m.UserID, &m.TenantID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, mapError(err, "membership")
	}
	return &m, nil
}

// UpsertMembership keeps the original joined_at when only the role changes.
func (r *PgxTenantRepository) UpsertMembership(ctx context.Context, membership domain.Membership) error {
	query := `
		INSERT INTO memberships (user_id, tenant_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, tenant_id) DO UPDATE SET role = EXCLUDED.role;
	`
	_, err := r.db.Exec(ctx, query, membership.UserID, membership.TenantID, membership.Role, membership.JoinedAt)
	return mapError(err, "membership")
}
