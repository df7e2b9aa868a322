package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/ids"
)

type accountService struct {
	BaseService
	uow   portsrepo.UnitOfWork
	audit portssvc.AuditRecorder
	idem  portssvc.IdempotencySvc
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// NewAccountService creates the chart of accounts service.
func NewAccountService(uow portsrepo.UnitOfWork, audit portssvc.AuditRecorder, idem portssvc.IdempotencySvc, base BaseService) portssvc.AccountSvcFacade {
	return &accountService{BaseService: base, uow: uow, audit: audit, idem: idem}
}

// loadAccount fetches an account and checks it belongs to the scope.
func loadAccount(ctx context.Context, repos portsrepo.Repositories, scope domain.Scope, accountID string) (*domain.Account, error) {
	account, err := repos.Accounts().FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := scope.Authorize(account.TenantID, account.CompanyID); err != nil {
		return nil, err
	}
	return account, nil
}

// loadCompany fetches the scope's company.
func loadCompany(ctx context.Context, repos portsrepo.Repositories, scope domain.Scope) (*domain.Company, error) {
	company, err := repos.Tenants().FindCompanyByID(ctx, scope.CompanyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeScopeViolation, "company is not in scope", err)
		}
		return nil, err
	}
	if err := scope.Authorize(company.TenantID, company.CompanyID); err != nil {
		return nil, err
	}
	return company, nil
}

// checkParent resolves parentID for accountID, walking the ancestor chain
// so an account can never become its own ancestor.
func checkParent(ctx context.Context, repos portsrepo.Repositories, scope domain.Scope, accountID, parentID string) error {
	if parentID == "" {
		return nil
	}
	visited := map[string]struct{}{accountID: {}}
	current := parentID
	for current != "" {
		if _, seen := visited[current]; seen {
			return apperrors.Newf(apperrors.CodeCycleDetected, "account %s would become its own ancestor", accountID)
		}
		visited[current] = struct{}{}

		ancestor, err := repos.Accounts().FindAccountByID(ctx, current)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				if current == parentID {
					return apperrors.Newf(apperrors.CodeUnknownAccount, "parent account %s does not exist", parentID)
				}
				return apperrors.Wrap(apperrors.CodeInternal, "ancestor chain references a missing account", err)
			}
			return err
		}
		if err := scope.Authorize(ancestor.TenantID, ancestor.CompanyID); err != nil {
			return err
		}
		current = ancestor.ParentAccountID
	}
	return nil
}

func (s *accountService) CreateAccount(ctx context.Context, scope domain.Scope, req dto.CreateAccountRequest) (*domain.Account, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !req.AccountType.IsValid() {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid account type %q", req.AccountType)
	}
	if req.CurrencyCode != "" && !domain.IsCurrencyCode(req.CurrencyCode) {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid currency code %q", req.CurrencyCode)
	}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "CreateAccount", req,
		func(ctx context.Context) (*domain.Account, error) {
			now := s.Now()
			account := domain.Account{
				AccountID:       ids.New(ids.PrefixAccount),
				TenantID:        scope.TenantID,
				CompanyID:       scope.CompanyID,
				Code:            req.Code,
				Name:            req.Name,
				AccountType:     req.AccountType,
				CurrencyCode:    req.CurrencyCode,
				ParentAccountID: req.ParentAccountID,
				Description:     req.Description,
				IsActive:        true,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     scope.Actor,
					LastUpdatedAt: now,
					LastUpdatedBy: scope.Actor,
				},
			}

			_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionCreate,
				EntityType: domain.EntityAccount,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					company, err := loadCompany(ctx, repos, scope)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if account.CurrencyCode == "" {
						account.CurrencyCode = company.BaseCurrency
					}
					if err := checkParent(ctx, repos, scope, account.AccountID, account.ParentAccountID); err != nil {
						return domain.AuditChange{}, err
					}
					// the unique index still decides concurrent creates
					existing, err := repos.Accounts().FindAccountByCode(ctx, scope.TenantID, scope.CompanyID, account.Code)
					switch {
					case err == nil:
						return domain.AuditChange{}, apperrors.Newf(apperrors.CodeDuplicateCode,
							"account code %q is already used by account %s", account.Code, existing.AccountID)
					case !errors.Is(err, apperrors.ErrNotFound):
						return domain.AuditChange{}, err
					}
					if err := repos.Accounts().SaveAccount(ctx, account); err != nil {
						return domain.AuditChange{}, err
					}
					return domain.AuditChange{EntityID: account.AccountID, After: account}, nil
				},
			})
			if err != nil {
				return nil, err
			}

			s.LogInfo(ctx, "Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
			return &account, nil
		})
}

func (s *accountService) DeactivateAccount(ctx context.Context, scope domain.Scope, accountID string, req dto.DeactivateAccountRequest) (*domain.Account, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "DeactivateAccount", accountID,
		func(ctx context.Context) (*domain.Account, error) {
			var result domain.Account
			_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionDeactivate,
				EntityType: domain.EntityAccount,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					account, err := loadAccount(ctx, repos, scope, accountID)
					if err != nil {
						return domain.AuditChange{}, err
					}
					result = *account
					if !account.IsActive {
						return domain.AuditChange{Skip: true}, nil
					}

					refs, err := repos.Accounts().CountLinesByAccount(ctx, accountID)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if refs > 0 {
						return domain.AuditChange{}, apperrors.Newf(apperrors.CodeReferencedEntity,
							"account %s is referenced by %d journal lines", accountID, refs)
					}

					before := *account
					account.IsActive = false
					account.Touch(scope.Actor, s.Now())
					if err := repos.Accounts().UpdateAccount(ctx, *account); err != nil {
						return domain.AuditChange{}, err
					}
					result = *account
					return domain.AuditChange{EntityID: accountID, Before: before, After: *account}, nil
				},
			})
			if err != nil {
				return nil, err
			}
			return &result, nil
		})
}

func (s *accountService) MoveAccount(ctx context.Context, scope domain.Scope, accountID string, req dto.MoveAccountRequest) (*domain.Account, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "MoveAccount",
		map[string]string{"accountID": accountID, "parentAccountID": req.ParentAccountID},
		func(ctx context.Context) (*domain.Account, error) {
			var result domain.Account
			_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionMove,
				EntityType: domain.EntityAccount,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					account, err := loadAccount(ctx, repos, scope, accountID)
					if err != nil {
						return domain.AuditChange{}, err
					}
					result = *account
					if account.ParentAccountID == req.ParentAccountID {
						return domain.AuditChange{Skip: true}, nil
					}
					if err := checkParent(ctx, repos, scope, accountID, req.ParentAccountID); err != nil {
						return domain.AuditChange{}, err
					}

					before := *account
					account.ParentAccountID = req.ParentAccountID
					account.Touch(scope.Actor, s.Now())
					if err := repos.Accounts().UpdateAccount(ctx, *account); err != nil {
						return domain.AuditChange{}, err
					}
					result = *account
					return domain.AuditChange{EntityID: accountID, Before: before, After: *account}, nil
				},
			})
			if err != nil {
				return nil, err
			}
			return &result, nil
		})
}

func (s *accountService) DeleteAccount(ctx context.Context, scope domain.Scope, accountID string, req dto.DeleteAccountRequest) (*domain.Account, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "DeleteAccount", accountID,
		func(ctx context.Context) (*domain.Account, error) {
			var result domain.Account
			_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionDelete,
				EntityType: domain.EntityAccount,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					account, err := loadAccount(ctx, repos, scope, accountID)
					if err != nil {
						return domain.AuditChange{}, err
					}

					refs, err := repos.Accounts().CountLinesByAccount(ctx, accountID)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if refs > 0 {
						return domain.AuditChange{}, apperrors.Newf(apperrors.CodeReferencedEntity,
							"account %s is referenced by %d journal lines", accountID, refs)
					}
					children, err := repos.Accounts().CountChildAccounts(ctx, accountID)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if children > 0 {
						return domain.AuditChange{}, apperrors.Newf(apperrors.CodeReferencedEntity,
							"account %s has %d child accounts", accountID, children)
					}

					if err := repos.Accounts().DeleteAccount(ctx, accountID); err != nil {
						return domain.AuditChange{}, err
					}
					result = *account
					return domain.AuditChange{EntityID: accountID, Before: *account}, nil
				},
			})
			if err != nil {
				return nil, err
			}
			s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID))
			return &result, nil
		})
}

func (s *accountService) GetAccount(ctx context.Context, scope domain.Scope, accountID string) (*domain.Account, error) {
	if err := scope.Require(domain.RoleReadOnly); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		account, err = loadAccount(ctx, repos, scope, accountID)
		return err
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeInternal {
			s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts retrieves a page of the scope company's accounts ordered by code.
func (s *accountService) ListAccounts(ctx context.Context, scope domain.Scope, params dto.ListAccountsParams) ([]domain.Account, error) {
	if err := scope.RequireCompany(domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if err := dto.Validate(params); err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit == 0 {
		limit = 100
	}

	var accounts []domain.Account
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		accounts, err = repos.Accounts().ListAccounts(ctx, scope.TenantID, scope.CompanyID, limit, params.Offset)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts", slog.Int("limit", limit), slog.Int("offset", params.Offset))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}
