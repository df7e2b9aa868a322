package repositories

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// AuditFilter narrows ListEntries. Empty fields match everything. A company
// filter still matches tenant-level entries, which carry no company.
type AuditFilter struct {
	TenantID   string
	CompanyID  string
	EntityType domain.EntityType
	EntityID   string
}

// AuditReader defines read operations for the audit trail
type AuditReader interface {
	// ListEntries returns entries newest first using token-based pagination.
	ListEntries(ctx context.Context, filter AuditFilter, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error)
}

// AuditWriter is append-only: there is no update or delete.
type AuditWriter interface {
	AppendEntry(ctx context.Context, entry domain.AuditLogEntry) error
}

// AuditRepositoryFacade combines all audit repository interfaces
type AuditRepositoryFacade interface {
	AuditReader
	AuditWriter
}
