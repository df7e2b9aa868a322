package dto

import "github.com/SscSPs/ledger_integrity_core/internal/core/domain"

// ListAuditEntriesParams defines the query parameters for reading the audit trail.
type ListAuditEntriesParams struct {
	EntityType domain.EntityType `form:"entityType"`
	EntityID   string            `form:"entityID"`
	Limit      int               `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken  *string           `form:"nextToken"`
}

// ListAuditEntriesResponse is a page of audit entries.
type ListAuditEntriesResponse struct {
	Entries   []domain.AuditLogEntry `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}
