package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/middleware"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/ids"
)

type auditService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// NewAuditService creates the audit trail recorder.
func NewAuditService(uow portsrepo.UnitOfWork, base BaseService) portssvc.AuditSvcFacade {
	return &auditService{BaseService: base, uow: uow}
}

func (s *auditService) MutateAndRecord(ctx context.Context, scope domain.Scope, m portssvc.Mutation) (bool, error) {
	operation := fmt.Sprintf("%s.%s", m.EntityType, m.Action)

	recorded, err := withRetry(ctx, &s.BaseService, operation, func(ctx context.Context) (bool, error) {
		wrote := false
		err := s.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
			change, err := m.Apply(ctx, repos)
			if err != nil {
				return err
			}
			if change.Skip {
				return nil
			}

			entry, err := s.buildEntry(ctx, scope, m, change)
			if err != nil {
				return err
			}
			if err := repos.Audit().AppendEntry(ctx, entry); err != nil {
				if apperrors.IsTransient(err) {
					return err
				}
				return apperrors.Wrap(apperrors.CodeInternal, "audit entry could not be appended", err)
			}
			wrote = true
			return nil
		})
		return wrote, err
	})
	if err != nil {
		s.Metrics.CommandError(string(apperrors.CodeOf(err)))
		if apperrors.CodeOf(err) == apperrors.CodeInternal {
			s.LogError(ctx, err, "Audited mutation failed", slog.String("operation", operation))
		}
		return false, err
	}
	if recorded {
		s.Metrics.AuditEntry(string(m.EntityType), string(m.Action))
	}
	return recorded, nil
}

func (s *auditService) buildEntry(ctx context.Context, scope domain.Scope, m portssvc.Mutation, change domain.AuditChange) (domain.AuditLogEntry, error) {
	before, err := snapshot(change.Before)
	if err != nil {
		return domain.AuditLogEntry{}, err
	}
	after, err := snapshot(change.After)
	if err != nil {
		return domain.AuditLogEntry{}, err
	}

	tenantID := scope.TenantID
	if change.TenantID != "" {
		tenantID = change.TenantID
	}
	companyID := scope.CompanyID
	if change.CompanyID != "" {
		companyID = change.CompanyID
	}
	if change.TenantLevel {
		companyID = ""
	}

	return domain.AuditLogEntry{
		EntryID:    ids.New(ids.PrefixAudit),
		TenantID:   tenantID,
		CompanyID:  companyID,
		Actor:      scope.Actor,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   change.EntityID,
		Before:     before,
		After:      after,
		RequestID:  middleware.GetRequestIDFromCtx(ctx),
		OccurredAt: s.Now(),
	}, nil
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "audit snapshot could not be encoded", err)
	}
	return b, nil
}

func (s *auditService) ListAuditEntries(ctx context.Context, scope domain.Scope, params dto.ListAuditEntriesParams) (*dto.ListAuditEntriesResponse, error) {
	if scope.TenantID == "" {
		return nil, apperrors.New(apperrors.CodeScopeViolation, "operation requires a tenant scope")
	}
	if err := scope.Require(domain.RoleReadOnly); err != nil {
		return nil, err
	}

	filter := portsrepo.AuditFilter{
		TenantID:   scope.TenantID,
		CompanyID:  scope.CompanyID,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
	}

	var resp dto.ListAuditEntriesResponse
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		entries, next, err := repos.Audit().ListEntries(ctx, filter, params.Limit, params.NextToken)
		if err != nil {
			return err
		}
		resp.Entries = entries
		resp.NextToken = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	if resp.Entries == nil {
		resp.Entries = []domain.AuditLogEntry{}
	}
	return &resp, nil
}
