package domain

import "time"

// Tenant is the top-level isolation boundary. Nothing is ever shared across tenants.
type Tenant struct {
	TenantID string   `json:"tenantID"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"` // unique across the system
	Features []string `json:"features,omitempty"`
	IsActive bool     `json:"isActive"`
	AuditFields
}

// Company is a legal or reporting entity inside a tenant. Accounts, journals
// and sequences are always scoped by (tenant, company).
type Company struct {
	CompanyID     string `json:"companyID"`
	TenantID      string `json:"tenantID"`
	Code          string `json:"code"` // unique per tenant
	Name          string `json:"name"`
	BaseCurrency  string `json:"baseCurrency"`
	FiscalYearEnd string `json:"fiscalYearEnd"` // MM-DD
	IsActive      bool   `json:"isActive"`
	AuditFields
}

// Role defines what a member may do inside a tenant.
type Role string

const (
	RoleReadOnly Role = "READONLY"
	RoleMember   Role = "MEMBER"
	RoleAdmin    Role = "ADMIN"
	RoleSystem   Role = "SYSTEM"  // internal jobs only, never granted to a membership
	RoleRemoved  Role = "REMOVED" // kept for history; grants nothing
)

func (r Role) rank() int {
	switch r {
	case RoleReadOnly:
		return 1
	case RoleMember:
		return 2
	case RoleAdmin:
		return 3
	case RoleSystem:
		return 4
	default:
		return 0
	}
}

// Covers reports whether r grants at least the privileges of min.
func (r Role) Covers(min Role) bool {
	return r.rank() > 0 && r.rank() >= min.rank()
}

// IsValidMemberRole reports whether r may be stored on a membership.
func (r Role) IsValidMemberRole() bool {
	switch r {
	case RoleReadOnly, RoleMember, RoleAdmin, RoleRemoved:
		return true
	}
	return false
}

// Membership records a user's role inside a tenant.
type Membership struct {
	UserID   string    `json:"userID"`
	TenantID string    `json:"tenantID"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}
