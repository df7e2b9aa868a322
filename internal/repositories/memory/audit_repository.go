package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_integrity_core/internal/utils/pagination"
)

type auditRepository struct {
	st *state
}

var _ portsrepo.AuditRepositoryFacade = (*auditRepository)(nil)

func (r *auditRepository) AppendEntry(_ context.Context, entry domain.AuditLogEntry) error {
	r.st.audit = append(r.st.audit, entry)
	return nil
}

func (r *auditRepository) ListEntries(_ context.Context, filter portsrepo.AuditFilter, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	limit = pagination.NormalizeLimit(limit)
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, err
		}
		cursor = &c
	}

	var matched []domain.AuditLogEntry
	for _, e := range r.st.audit {
		if e.TenantID != filter.TenantID {
			continue
		}
		if filter.CompanyID != "" && e.CompanyID != "" && e.CompanyID != filter.CompanyID {
			continue
		}
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		if cursor != nil && !cursor.After(e.OccurredAt, e.EntryID) {
			continue
		}
		matched = append(matched, e)
	}
	slices.SortFunc(matched, func(a, b domain.AuditLogEntry) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		return strings.Compare(b.EntryID, a.EntryID)
	})

	if len(matched) <= limit {
		return matched, nil, nil
	}
	page := matched[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.OccurredAt, last.EntryID)
	return page, &token, nil
}
