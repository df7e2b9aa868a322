package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/ids"
)

type fxRateService struct {
	BaseService
	uow   portsrepo.UnitOfWork
	audit portssvc.AuditRecorder
	idem  portssvc.IdempotencySvc
}

var _ portssvc.FxRateSvcFacade = (*fxRateService)(nil)

// NewFxRateService creates the FX rate timeline service.
func NewFxRateService(uow portsrepo.UnitOfWork, audit portssvc.AuditRecorder, idem portssvc.IdempotencySvc, base BaseService) portssvc.FxRateSvcFacade {
	return &fxRateService{BaseService: base, uow: uow, audit: audit, idem: idem}
}

func validatePair(base, quote string) error {
	if !domain.IsCurrencyCode(base) {
		return apperrors.Newf(apperrors.CodeValidation, "invalid base currency %q", base)
	}
	if !domain.IsCurrencyCode(quote) {
		return apperrors.Newf(apperrors.CodeValidation, "invalid quote currency %q", quote)
	}
	return nil
}

// rateAt looks up the rate valid at the given instant inside an open unit of work.
func rateAt(ctx context.Context, repos portsrepo.Repositories, tenantID, base, quote string, at time.Time) (*domain.FxRate, error) {
	if base == quote {
		identity := domain.IdentityRate(tenantID, base, at)
		return &identity, nil
	}
	rate, err := repos.FxRates().FindRateAt(ctx, tenantID, base, quote, at)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNoRateFound, "no %s/%s rate valid at %s", base, quote, at.Format(time.RFC3339))
		}
		return nil, err
	}
	return rate, nil
}

func (s *fxRateService) AddRate(ctx context.Context, scope domain.Scope, req dto.AddFxRateRequest) (*domain.FxRate, error) {
	if scope.TenantID == "" {
		return nil, apperrors.New(apperrors.CodeScopeViolation, "operation requires a tenant scope")
	}
	if err := scope.Require(domain.RoleMember); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if err := validatePair(req.BaseCurrency, req.QuoteCurrency); err != nil {
		return nil, err
	}
	if req.BaseCurrency == req.QuoteCurrency {
		return nil, apperrors.NewValidationError("base and quote currency must differ")
	}
	if !req.Rate.IsPositive() {
		return nil, apperrors.NewValidationError("rate must be greater than zero")
	}
	if req.ValidFrom.IsZero() {
		return nil, apperrors.NewValidationError("validFrom is required")
	}
	from := req.ValidFrom.UTC()
	var to *time.Time
	if req.ValidTo != nil {
		t := req.ValidTo.UTC()
		if !t.After(from) {
			return nil, apperrors.NewValidationError("validTo must be after validFrom")
		}
		to = &t
	}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "AddFxRate", req,
		func(ctx context.Context) (*domain.FxRate, error) {
			now := s.Now()
			rate := domain.FxRate{
				RateID:        ids.New(ids.PrefixFxRate),
				TenantID:      scope.TenantID,
				BaseCurrency:  req.BaseCurrency,
				QuoteCurrency: req.QuoteCurrency,
				Rate:          req.Rate,
				ValidFrom:     from,
				ValidTo:       to,
				Source:        req.Source,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     scope.Actor,
					LastUpdatedAt: now,
					LastUpdatedBy: scope.Actor,
				},
			}

			_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionCreate,
				EntityType: domain.EntityFxRate,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					rates := repos.FxRates()
					if err := rates.LockPair(ctx, rate.TenantID, rate.BaseCurrency, rate.QuoteCurrency); err != nil {
						return domain.AuditChange{}, err
					}
					overlapping, err := rates.FindOverlapping(ctx, rate.TenantID, rate.BaseCurrency, rate.QuoteCurrency, rate.ValidFrom, rate.ValidTo)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if len(overlapping) > 0 {
						return domain.AuditChange{}, apperrors.Newf(apperrors.CodeOverlappingInterval,
							"%s/%s rate overlaps existing rate %s valid from %s",
							rate.BaseCurrency, rate.QuoteCurrency, overlapping[0].RateID, overlapping[0].ValidFrom.Format(time.RFC3339))
					}
					if err := rates.SaveRate(ctx, rate); err != nil {
						return domain.AuditChange{}, err
					}
					return domain.AuditChange{EntityID: rate.RateID, TenantLevel: true, After: rate}, nil
				},
			})
			if err != nil {
				return nil, err
			}

			s.LogInfo(ctx, "FX rate added",
				slog.String("rate_id", rate.RateID),
				slog.String("pair", rate.BaseCurrency+"/"+rate.QuoteCurrency),
				slog.String("rate", rate.Rate.String()))
			return &rate, nil
		})
}

func (s *fxRateService) RateAt(ctx context.Context, scope domain.Scope, base, quote string, at time.Time) (*domain.FxRate, error) {
	if scope.TenantID == "" {
		return nil, apperrors.New(apperrors.CodeScopeViolation, "operation requires a tenant scope")
	}
	if err := scope.Require(domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if err := validatePair(base, quote); err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = s.Now()
	}

	var rate *domain.FxRate
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		rate, err = rateAt(ctx, repos, scope.TenantID, base, quote, at.UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *fxRateService) ListRates(ctx context.Context, scope domain.Scope, base, quote string) ([]domain.FxRate, error) {
	if scope.TenantID == "" {
		return nil, apperrors.New(apperrors.CodeScopeViolation, "operation requires a tenant scope")
	}
	if err := scope.Require(domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if err := validatePair(base, quote); err != nil {
		return nil, err
	}

	var rates []domain.FxRate
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		rates, err = repos.FxRates().ListRates(ctx, scope.TenantID, base, quote)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	if rates == nil {
		return []domain.FxRate{}, nil
	}
	return rates, nil
}
