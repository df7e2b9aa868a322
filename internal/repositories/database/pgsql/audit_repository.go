package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_integrity_core/internal/utils/pagination"
)

type PgxAuditRepository struct {
	db DBTX
}

var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

// AppendEntry writes inside the caller's transaction; a failed append rolls
// back the mutation it describes. Updates and deletes are refused by a trigger.
func (r *PgxAuditRepository) AppendEntry(ctx context.Context, entry domain.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (entry_id, tenant_id, company_id, actor, action, entity_type, entity_id,
		                       before, after, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		entry.EntryID, entry.TenantID, nullIfEmpty(entry.CompanyID), entry.Actor, entry.Action,
		entry.EntityType, entry.EntityID, jsonOrNil(entry.Before), jsonOrNil(entry.After),
		entry.RequestID, entry.OccurredAt,
	)
	return mapError(err, "audit entry")
}

func (r *PgxAuditRepository) ListEntries(ctx context.Context, filter portsrepo.AuditFilter, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	limit = pagination.NormalizeLimit(limit)

	var cursorTime *time.Time
	var cursorID string
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, err
		}
		cursorTime, cursorID = &c.CreatedAt, c.ID
	}

	// tenant-level entries carry no company and stay visible under a company filter
	query := `
		SELECT entry_id, tenant_id, COALESCE(company_id, ''), actor, action, entity_type, entity_id,
		       before, after, request_id, occurred_at
		FROM audit_log
		WHERE tenant_id = $1
		  AND ($2 = '' OR company_id IS NULL OR company_id = $2)
		  AND ($3 = '' OR entity_type = $3)
		  AND ($4 = '' OR entity_id = $4)
		  AND ($5::timestamptz IS NULL OR (occurred_at, entry_id) < ($5::timestamptz, $6))
		ORDER BY occurred_at DESC, entry_id DESC
		LIMIT $7;
	`
	rows, err := r.db.Query(ctx, query,
		filter.TenantID, filter.CompanyID, string(filter.EntityType), filter.EntityID,
		cursorTime, cursorID, limit+1,
	)
	if err != nil {
		return nil, nil, mapError(err, "audit entries")
	}
	defer rows.Close()

	entries := []domain.AuditLogEntry{}
	for rows.Next() {
		var e domain.AuditLogEntry
		var before, after []byte
		if err := rows.Scan(
			&e.EntryID, &e.TenantID, &e.CompanyID, &e.Actor, &e.Action, &e.EntityType, &e.EntityID,
			&before, &after, &e.RequestID, &e.OccurredAt,
		); err != nil {
			return nil, nil, mapError(err, "audit entry row")
		}
		e.Before, e.After = before, after
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapError(err, "audit entries")
	}

	if len(entries) <= limit {
		return entries, nil, nil
	}
	entries = entries[:limit]
	last := entries[len(entries)-1]
	token := pagination.EncodeToken(last.OccurredAt, last.EntryID)
	return entries, &token, nil
}

// jsonOrNil keeps absent snapshots as SQL NULL rather than an empty document.
func jsonOrNil(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
