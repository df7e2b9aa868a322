package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

func TestScope_Authorize(t *testing.T) {
	s := domain.Scope{TenantID: "tnt_a", CompanyID: "co_1", Actor: "u1", Role: domain.RoleMember}

	assert.NoError(t, s.Authorize("tnt_a", "co_1"))
	assert.NoError(t, s.Authorize("tnt_a", ""))
	assert.True(t, errors.Is(s.Authorize("tnt_b", "co_1"), apperrors.ErrScopeViolation))
	assert.True(t, errors.Is(s.Authorize("tnt_a", "co_2"), apperrors.ErrScopeViolation))
	assert.True(t, errors.Is(s.Authorize("", ""), apperrors.ErrScopeViolation))
}

func TestScope_Require(t *testing.T) {
	readonly := domain.Scope{TenantID: "t", CompanyID: "c", Role: domain.RoleReadOnly}
	admin := domain.Scope{TenantID: "t", CompanyID: "c", Role: domain.RoleAdmin}
	removed := domain.Scope{TenantID: "t", CompanyID: "c", Role: domain.RoleRemoved}

	assert.NoError(t, readonly.Require(domain.RoleReadOnly))
	assert.True(t, errors.Is(readonly.Require(domain.RoleMember), apperrors.ErrScopeViolation))
	assert.NoError(t, admin.Require(domain.RoleMember))
	assert.Error(t, removed.Require(domain.RoleReadOnly))
	assert.NoError(t, domain.SystemScope("t", "c").Require(domain.RoleAdmin))
}

func TestScope_RequireCompany(t *testing.T) {
	tenantOnly := domain.Scope{TenantID: "t", Role: domain.RoleAdmin}
	assert.True(t, errors.Is(tenantOnly.RequireCompany(domain.RoleReadOnly), apperrors.ErrScopeViolation))
}
