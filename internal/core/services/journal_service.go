package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/ids"
)

// journalService provides the draft and posting workflow of journals.
type journalService struct {
	BaseService
	uow   portsrepo.UnitOfWork
	audit portssvc.AuditRecorder
	idem  portssvc.IdempotencySvc
}

// NewJournalService creates a new JournalService.
func NewJournalService(uow portsrepo.UnitOfWork, audit portssvc.AuditRecorder, idem portssvc.IdempotencySvc, base BaseService) portssvc.JournalSvcFacade {
	return &journalService{BaseService: base, uow: uow, audit: audit, idem: idem}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// buildLines turns requested lines into journal lines, enforcing the line
// count, the one-sided amount rule and the currency scale.
func buildLines(journalID, currencyCode string, inputs []dto.JournalLineInput) ([]domain.JournalLine, error) {
	if len(inputs) < domain.MinJournalLines {
		return nil, apperrors.Newf(apperrors.CodeInvalidLine, "journal needs at least %d lines, got %d", domain.MinJournalLines, len(inputs))
	}
	lines := make([]domain.JournalLine, len(inputs))
	for i, in := range inputs {
		line := domain.JournalLine{
			LineID:      ids.New(ids.PrefixLine),
			JournalID:   journalID,
			LineNo:      i + 1,
			AccountID:   in.AccountID,
			Debit:       in.Debit,
			Credit:      in.Credit,
			Description: in.Description,
		}
		if line.AccountID == "" {
			return nil, apperrors.Newf(apperrors.CodeInvalidLine, "line %d: account is required", line.LineNo)
		}
		if err := line.ValidateAmounts(currencyCode); err != nil {
			return nil, err
		}
		lines[i] = line
	}
	return lines, nil
}

// checkLineAccounts locks the accounts referenced by lines and verifies each
// one exists, belongs to the scope and is active.
func checkLineAccounts(ctx context.Context, repos portsrepo.Repositories, scope domain.Scope, lines []domain.JournalLine) error {
	accountIDs := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		accountIDs = append(accountIDs, l.AccountID)
	}

	accounts, err := repos.Accounts().LockAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return err
	}
	for _, l := range lines {
		account, ok := accounts[l.AccountID]
		if !ok {
			return apperrors.Newf(apperrors.CodeUnknownAccount, "line %d: account %s does not exist", l.LineNo, l.AccountID)
		}
		if err := scope.Authorize(account.TenantID, account.CompanyID); err != nil {
			return err
		}
		if !account.IsActive {
			return apperrors.Newf(apperrors.CodeInvalidLine, "line %d: account %s is inactive", l.LineNo, account.Code)
		}
	}
	return nil
}

// resolveExchangeRate returns the rate converting the journal currency into
// the company base currency. An explicit rate wins over the FX timeline.
func resolveExchangeRate(ctx context.Context, repos portsrepo.Repositories, company *domain.Company, currencyCode string, at time.Time, explicit *decimal.Decimal) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if currencyCode == company.BaseCurrency {
		if explicit != nil && !explicit.Equal(one) {
			return decimal.Zero, apperrors.NewValidationError("exchange rate must be 1 for journals in the base currency")
		}
		return one, nil
	}
	if explicit != nil {
		if !explicit.IsPositive() {
			return decimal.Zero, apperrors.NewValidationError("exchange rate must be greater than zero")
		}
		return *explicit, nil
	}
	rate, err := rateAt(ctx, repos, company.TenantID, currencyCode, company.BaseCurrency, at)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Rate, nil
}

// loadJournal fetches a journal header for update and checks it belongs to the scope.
func loadJournal(ctx context.Context, repos portsrepo.Repositories, scope domain.Scope, journalID string, forUpdate bool) (*domain.Journal, error) {
	var (
		journal *domain.Journal
		err     error
	)
	if forUpdate {
		journal, err = repos.Journals().FindJournalByIDForUpdate(ctx, journalID)
	} else {
		journal, err = repos.Journals().FindJournalByID(ctx, journalID)
	}
	if err != nil {
		return nil, err
	}
	if err := scope.Authorize(journal.TenantID, journal.CompanyID); err != nil {
		return nil, err
	}
	return journal, nil
}

func withLines(ctx context.Context, repos portsrepo.Repositories, journal *domain.Journal) error {
	lines, err := repos.Journals().FindLinesByJournalID(ctx, journal.JournalID)
	if err != nil {
		return err
	}
	journal.Lines = lines
	return nil
}

func immutable(journal *domain.Journal) error {
	return apperrors.Newf(apperrors.CodeImmutableJournal, "journal %s is posted and cannot change", journal.JournalID)
}

// CreateJournal persists a new draft journal with its lines.
func (s *journalService) CreateJournal(ctx context.Context, scope domain.Scope, req dto.CreateJournalRequest) (*domain.Journal, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !domain.IsCurrencyCode(req.CurrencyCode) {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid currency code %q", req.CurrencyCode)
	}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "CreateJournal", req,
		func(ctx context.Context) (*domain.Journal, error) {
			now := s.Now()
			journalDate := req.JournalDate.UTC()
			if req.JournalDate.IsZero() {
				journalDate = now
			}

			journalID := ids.New(ids.PrefixJournal)
			lines, err := buildLines(journalID, req.CurrencyCode, req.Lines)
			if err != nil {
				return nil, err
			}
			debit, credit := domain.SumLines(lines)

			journal := domain.Journal{
				JournalID:    journalID,
				TenantID:     scope.TenantID,
				CompanyID:    scope.CompanyID,
				JournalDate:  journalDate,
				Description:  req.Description,
				Reference:    req.Reference,
				CurrencyCode: req.CurrencyCode,
				TotalDebit:   debit,
				TotalCredit:  credit,
				Status:       domain.Draft,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     scope.Actor,
					LastUpdatedAt: now,
					LastUpdatedBy: scope.Actor,
				},
			}

			_, err = s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionCreate,
				EntityType: domain.EntityJournal,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					company, err := loadCompany(ctx, repos, scope)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if err := checkLineAccounts(ctx, repos, scope, lines); err != nil {
						return domain.AuditChange{}, err
					}
					rate, err := resolveExchangeRate(ctx, repos, company, journal.CurrencyCode, journal.JournalDate, req.ExchangeRate)
					if err != nil {
						return domain.AuditChange{}, err
					}
					journal.ExchangeRate = rate

					if err := repos.Journals().SaveJournal(ctx, journal, lines); err != nil {
						return domain.AuditChange{}, err
					}
					journal.Lines = lines
					return domain.AuditChange{EntityID: journal.JournalID, After: journal}, nil
				},
			})
			if err != nil {
				return nil, err
			}

			s.LogInfo(ctx, "Journal created", slog.String("journal_id", journal.JournalID), slog.Int("lines", len(lines)))
			return &journal, nil
		})
}

// UpdateJournal amends a draft journal.
func (s *journalService) UpdateJournal(ctx context.Context, scope domain.Scope, journalID string, req dto.UpdateJournalRequest) (*domain.Journal, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	payload := struct {
		JournalID string                   `json:"journalID"`
		Request   dto.UpdateJournalRequest `json:"request"`
	}{journalID, req}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "UpdateJournal", payload,
		func(ctx context.Context) (*domain.Journal, error) {
			var result domain.Journal
			_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionUpdate,
				EntityType: domain.EntityJournal,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					journal, err := loadJournal(ctx, repos, scope, journalID, true)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if journal.IsPosted() {
						return domain.AuditChange{}, immutable(journal)
					}
					if err := withLines(ctx, repos, journal); err != nil {
						return domain.AuditChange{}, err
					}
					before := *journal

					if req.Description != nil {
						journal.Description = *req.Description
					}
					if req.Reference != nil {
						journal.Reference = *req.Reference
					}
					rateChanged := req.ExchangeRate != nil
					if req.JournalDate != nil && !req.JournalDate.Equal(journal.JournalDate) {
						journal.JournalDate = req.JournalDate.UTC()
						rateChanged = true
					}
					if rateChanged {
						company, err := loadCompany(ctx, repos, scope)
						if err != nil {
							return domain.AuditChange{}, err
						}
						rate, err := resolveExchangeRate(ctx, repos, company, journal.CurrencyCode, journal.JournalDate, req.ExchangeRate)
						if err != nil {
							return domain.AuditChange{}, err
						}
						journal.ExchangeRate = rate
					}

					if req.Lines != nil {
						lines, err := buildLines(journal.JournalID, journal.CurrencyCode, req.Lines)
						if err != nil {
							return domain.AuditChange{}, err
						}
						if err := checkLineAccounts(ctx, repos, scope, lines); err != nil {
							return domain.AuditChange{}, err
						}
						if err := repos.Journals().ReplaceLines(ctx, journal.JournalID, lines); err != nil {
							return domain.AuditChange{}, err
						}
						journal.Lines = lines
					}
					journal.TotalDebit, journal.TotalCredit = domain.SumLines(journal.Lines)
					journal.Touch(scope.Actor, s.Now())

					if err := repos.Journals().UpdateJournal(ctx, *journal); err != nil {
						return domain.AuditChange{}, err
					}
					result = *journal
					return domain.AuditChange{EntityID: journal.JournalID, Before: before, After: *journal}, nil
				},
			})
			if err != nil {
				return nil, err
			}
			return &result, nil
		})
}

// PostJournal makes a balanced draft immutable and gives it the next journal
// number of its company. Posting a posted journal returns it unchanged.
func (s *journalService) PostJournal(ctx context.Context, scope domain.Scope, journalID string, req dto.PostJournalRequest) (*domain.Journal, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "PostJournal", journalID,
		func(ctx context.Context) (*domain.Journal, error) {
			var result domain.Journal
			posted, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionPost,
				EntityType: domain.EntityJournal,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					journal, err := loadJournal(ctx, repos, scope, journalID, true)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if err := withLines(ctx, repos, journal); err != nil {
						return domain.AuditChange{}, err
					}
					if journal.IsPosted() {
						result = *journal
						return domain.AuditChange{Skip: true}, nil
					}

					if err := checkLineAccounts(ctx, repos, scope, journal.Lines); err != nil {
						return domain.AuditChange{}, err
					}
					if err := domain.CheckBalance(journal.Lines); err != nil {
						return domain.AuditChange{}, err
					}
					before := *journal

					number, err := repos.Journals().NextJournalNumber(ctx, journal.TenantID, journal.CompanyID)
					if err != nil {
						return domain.AuditChange{}, err
					}
					now := s.Now()
					journal.TotalDebit, journal.TotalCredit = domain.SumLines(journal.Lines)
					journal.JournalNumber = number
					journal.Status = domain.Posted
					journal.PostedAt = &now
					journal.PostedBy = scope.Actor
					journal.Touch(scope.Actor, now)

					if err := repos.Journals().UpdateJournal(ctx, *journal); err != nil {
						return domain.AuditChange{}, err
					}
					result = *journal
					return domain.AuditChange{EntityID: journal.JournalID, Before: before, After: *journal}, nil
				},
			})
			if err != nil {
				return nil, err
			}

			if posted {
				s.Metrics.JournalPosted(scope.TenantID)
				s.LogInfo(ctx, "Journal posted", slog.String("journal_id", result.JournalID), slog.Int64("journal_number", result.JournalNumber))
			}
			return &result, nil
		})
}

// DeleteJournal removes a draft journal.
func (s *journalService) DeleteJournal(ctx context.Context, scope domain.Scope, journalID string, req dto.DeleteJournalRequest) (*domain.Journal, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "DeleteJournal", journalID,
		func(ctx context.Context) (*domain.Journal, error) {
			var result domain.Journal
			_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionDelete,
				EntityType: domain.EntityJournal,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					journal, err := loadJournal(ctx, repos, scope, journalID, true)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if journal.IsPosted() {
						return domain.AuditChange{}, immutable(journal)
					}
					if err := withLines(ctx, repos, journal); err != nil {
						return domain.AuditChange{}, err
					}
					if err := repos.Journals().DeleteJournal(ctx, journalID); err != nil {
						return domain.AuditChange{}, err
					}
					result = *journal
					return domain.AuditChange{EntityID: journalID, Before: *journal}, nil
				},
			})
			if err != nil {
				return nil, err
			}
			s.LogInfo(ctx, "Journal deleted", slog.String("journal_id", journalID))
			return &result, nil
		})
}

// ReverseJournal creates a draft with debits and credits swapped. The
// original stays untouched; posting the draft compensates it.
func (s *journalService) ReverseJournal(ctx context.Context, scope domain.Scope, journalID string, req dto.ReverseJournalRequest) (*domain.Journal, error) {
	if err := scope.RequireCompany(domain.RoleMember); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	payload := struct {
		JournalID string                    `json:"journalID"`
		Request   dto.ReverseJournalRequest `json:"request"`
	}{journalID, req}

	return runIdempotent(ctx, &s.BaseService, s.idem, scope, req.IdempotencyKey, "ReverseJournal", payload,
		func(ctx context.Context) (*domain.Journal, error) {
			reversalID := ids.New(ids.PrefixJournal)
			var result domain.Journal
			_, err := s.audit.MutateAndRecord(ctx, scope, portssvc.Mutation{
				Action:     domain.ActionReverse,
				EntityType: domain.EntityJournal,
				Apply: func(ctx context.Context, repos portsrepo.Repositories) (domain.AuditChange, error) {
					original, err := loadJournal(ctx, repos, scope, journalID, true)
					if err != nil {
						return domain.AuditChange{}, err
					}
					if !original.IsPosted() {
						return domain.AuditChange{}, apperrors.Newf(apperrors.CodeValidation, "journal %s is a draft; delete it instead of reversing", journalID)
					}
					if original.OriginalJournalID != "" {
						return domain.AuditChange{}, apperrors.Newf(apperrors.CodeValidation, "journal %s is itself a reversal", journalID)
					}
					if existing, err := repos.Journals().FindReversalOf(ctx, journalID); err == nil {
						return domain.AuditChange{}, apperrors.Newf(apperrors.CodeValidation, "journal %s is already reversed by %s", journalID, existing.JournalID)
					} else if apperrors.CodeOf(err) != apperrors.CodeNotFound {
						return domain.AuditChange{}, err
					}
					if err := withLines(ctx, repos, original); err != nil {
						return domain.AuditChange{}, err
					}

					lines := domain.ReversalLines(original.Lines)
					for i := range lines {
						lines[i].LineID = ids.New(ids.PrefixLine)
						lines[i].JournalID = reversalID
					}
					if err := checkLineAccounts(ctx, repos, scope, lines); err != nil {
						return domain.AuditChange{}, err
					}

					now := s.Now()
					journalDate := original.JournalDate
					if req.JournalDate != nil {
						journalDate = req.JournalDate.UTC()
					}
					description := req.Description
					if description == "" {
						description = fmt.Sprintf("Reversal of journal #%d", original.JournalNumber)
					}
					debit, credit := domain.SumLines(lines)

					reversal := domain.Journal{
						JournalID:         reversalID,
						TenantID:          original.TenantID,
						CompanyID:         original.CompanyID,
						JournalDate:       journalDate,
						Description:       description,
						Reference:         original.Reference,
						CurrencyCode:      original.CurrencyCode,
						ExchangeRate:      original.ExchangeRate,
						TotalDebit:        debit,
						TotalCredit:       credit,
						Status:            domain.Draft,
						OriginalJournalID: original.JournalID,
						AuditFields: domain.AuditFields{
							CreatedAt:     now,
							CreatedBy:     scope.Actor,
							LastUpdatedAt: now,
							LastUpdatedBy: scope.Actor,
						},
					}
					if err := repos.Journals().SaveJournal(ctx, reversal, lines); err != nil {
						return domain.AuditChange{}, err
					}
					reversal.Lines = lines
					result = reversal
					return domain.AuditChange{EntityID: reversal.JournalID, After: reversal}, nil
				},
			})
			if err != nil {
				return nil, err
			}
			s.LogInfo(ctx, "Journal reversal drafted", slog.String("journal_id", journalID), slog.String("reversal_id", result.JournalID))
			return &result, nil
		})
}

// GetJournal retrieves a journal with its lines.
func (s *journalService) GetJournal(ctx context.Context, scope domain.Scope, journalID string) (*domain.Journal, error) {
	if err := scope.Require(domain.RoleReadOnly); err != nil {
		return nil, err
	}

	var journal *domain.Journal
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		journal, err = loadJournal(ctx, repos, scope, journalID, false)
		if err != nil {
			return err
		}
		return withLines(ctx, repos, journal)
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeInternal {
			s.LogError(ctx, err, "Failed to get journal", slog.String("journal_id", journalID))
		}
		return nil, err
	}
	return journal, nil
}

// ListJournals retrieves a page of journal headers, newest first.
func (s *journalService) ListJournals(ctx context.Context, scope domain.Scope, params dto.ListJournalsParams) ([]domain.Journal, *string, error) {
	if err := scope.RequireCompany(domain.RoleReadOnly); err != nil {
		return nil, nil, err
	}
	if err := dto.Validate(params); err != nil {
		return nil, nil, err
	}

	filter := portsrepo.JournalFilter{
		TenantID:  scope.TenantID,
		CompanyID: scope.CompanyID,
		Status:    params.Status,
	}

	var (
		journals []domain.Journal
		next     *string
	)
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.Repositories) error {
		var err error
		journals, next, err = repos.Journals().ListJournals(ctx, filter, params.Limit, params.NextToken)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list journals: %w", err)
	}
	if journals == nil {
		journals = []domain.Journal{}
	}
	return journals, next, nil
}
