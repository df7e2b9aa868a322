package domain

import (
	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
)

// SystemActor is recorded as the actor of internal jobs.
const SystemActor = "system"

// Claims is the identity asserted by an authenticated caller before it has
// been checked against tenant membership.
type Claims struct {
	Subject   string
	TenantID  string
	CompanyID string
}

// Scope is the verified execution context every operation runs under.
// Build one with the scope resolver or SystemScope, never by hand in adapters.
type Scope struct {
	TenantID  string `json:"tenantID"`
	CompanyID string `json:"companyID,omitempty"`
	Actor     string `json:"actor"`
	Role      Role   `json:"role"`
}

// SystemScope is the explicit scope carried by internal jobs and provisioning.
func SystemScope(tenantID, companyID string) Scope {
	return Scope{TenantID: tenantID, CompanyID: companyID, Actor: SystemActor, Role: RoleSystem}
}

// Authorize fails with ScopeViolation unless the entity identified by
// tenantID/companyID belongs to this scope. An empty companyID means the
// entity is tenant-level.
func (s Scope) Authorize(tenantID, companyID string) error {
	if tenantID == "" || s.TenantID != tenantID {
		return apperrors.New(apperrors.CodeScopeViolation, "entity belongs to another tenant")
	}
	if companyID != "" && s.CompanyID != companyID {
		return apperrors.New(apperrors.CodeScopeViolation, "entity belongs to another company")
	}
	return nil
}

// Require fails with ScopeViolation unless the scope's role covers min.
func (s Scope) Require(min Role) error {
	if !s.Role.Covers(min) {
		return apperrors.Newf(apperrors.CodeScopeViolation, "role %s is not allowed to perform this operation", s.Role)
	}
	return nil
}

// RequireCompany fails unless the scope targets a specific company and the
// role covers min.
func (s Scope) RequireCompany(min Role) error {
	if s.TenantID == "" || s.CompanyID == "" {
		return apperrors.New(apperrors.CodeScopeViolation, "operation requires a company scope")
	}
	return s.Require(min)
}
