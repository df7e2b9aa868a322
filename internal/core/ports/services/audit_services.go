package services

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
)

// Mutation is a unit of work whose effect is audited. Apply runs inside the
// transaction and reports what changed; it may be re-run on transient failures.
type Mutation struct {
	Action     domain.AuditAction
	EntityType domain.EntityType
	Apply      func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error)
}

// AuditRecorder is the only write path for audited entities.
type AuditRecorder interface {
	// MutateAndRecord applies m and appends its audit entry in one unit of
	// work. If the entry cannot be appended the mutation is rolled back.
	// It reports whether an entry was written (false for no-op mutations).
	MutateAndRecord(ctx context.Context, scope domain.Scope, m Mutation) (bool, error)
}

// AuditReaderSvc defines read operations for the audit trail
type AuditReaderSvc interface {
	ListAuditEntries(ctx context.Context, scope domain.Scope, params dto.ListAuditEntriesParams) (*dto.ListAuditEntriesResponse, error)
}

// AuditSvcFacade combines all audit service interfaces
type AuditSvcFacade interface {
	AuditRecorder
	AuditReaderSvc
}
