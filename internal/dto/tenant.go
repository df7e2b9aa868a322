package dto

import "github.com/SscSPs/ledger_integrity_core/internal/core/domain"

// CreateTenantRequest provisions a tenant and its first administrator.
type CreateTenantRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Slug        string   `json:"slug" binding:"required,max=63,lowercase"`
	Features    []string `json:"features"`
	AdminUserID string   `json:"adminUserID" binding:"required"`
}

// CreateCompanyRequest adds a company to the caller's tenant.
type CreateCompanyRequest struct {
	Code          string `json:"code" binding:"required,max=50"`
	Name          string `json:"name" binding:"required,max=255"`
	BaseCurrency  string `json:"baseCurrency" binding:"required,len=3,uppercase"`
	FiscalYearEnd string `json:"fiscalYearEnd" binding:"omitempty,len=5"` // MM-DD, defaults to 12-31
}

// AddMemberRequest grants a user a role in the caller's tenant.
type AddMemberRequest struct {
	UserID string      `json:"userID" binding:"required"`
	Role   domain.Role `json:"role" binding:"required,oneof=READONLY MEMBER ADMIN REMOVED"`
}
