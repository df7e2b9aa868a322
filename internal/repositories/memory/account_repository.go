package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

type accountRepository struct {
	st *state
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepository)(nil)

func (r *accountRepository) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	a, ok := r.st.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account not found")
	}
	return &a, nil
}

func (r *accountRepository) FindAccountByCode(_ context.Context, tenantID, companyID, code string) (*domain.Account, error) {
	for _, a := range r.st.accounts {
		if a.TenantID == tenantID && a.CompanyID == companyID && a.Code == code {
			return &a, nil
		}
	}
	return nil, apperrors.NewNotFoundError("account not found")
}

// LockAccountsByIDs needs no locking here: the unit of work already holds the store mutex.
func (r *accountRepository) LockAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if a, ok := r.st.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (r *accountRepository) ListAccounts(_ context.Context, tenantID, companyID string, limit, offset int) ([]domain.Account, error) {
	var all []domain.Account
	for _, a := range r.st.accounts {
		if a.TenantID == tenantID && a.CompanyID == companyID {
			all = append(all, a)
		}
	}
	slices.SortFunc(all, func(a, b domain.Account) int { return strings.Compare(a.Code, b.Code) })

	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *accountRepository) CountLinesByAccount(_ context.Context, accountID string) (int, error) {
	n := 0
	for _, ls := range r.st.lines {
		for _, l := range ls {
			if l.AccountID == accountID {
				n++
			}
		}
	}
	return n, nil
}

func (r *accountRepository) CountChildAccounts(_ context.Context, accountID string) (int, error) {
	n := 0
	for _, a := range r.st.accounts {
		if a.ParentAccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (r *accountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	if _, err := r.FindAccountByCode(ctx, account.TenantID, account.CompanyID, account.Code); err == nil {
		return apperrors.Newf(apperrors.CodeDuplicateCode, "account code %q already exists", account.Code)
	}
	r.st.accounts[account.AccountID] = account
	return nil
}

func (r *accountRepository) UpdateAccount(_ context.Context, account domain.Account) error {
	if _, ok := r.st.accounts[account.AccountID]; !ok {
		return apperrors.NewNotFoundError("account not found")
	}
	r.st.accounts[account.AccountID] = account
	return nil
}

func (r *accountRepository) DeleteAccount(_ context.Context, accountID string) error {
	if _, ok := r.st.accounts[accountID]; !ok {
		return apperrors.NewNotFoundError("account not found")
	}
	delete(r.st.accounts, accountID)
	return nil
}
