package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

type PgxAccountRepository struct {
	db DBTX
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, tenant_id, company_id, code, name, account_type, currency_code,
		       parent_account_id, description, is_active,
		       created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	var parentID *string
	err := row.Scan(
		&a.AccountID, &a.TenantID, &a.CompanyID, &a.Code, &a.Name, &a.AccountType, &a.CurrencyCode,
		&parentID, &a.Description, &a.IsActive,
		&a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy,
	)
	a.ParentAccountID = derefString(parentID)
	return a, err
}

// SaveAccount inserts a new account. The unique (tenant, company, code)
// constraint reports collisions as a duplicate code.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.db.Exec(ctx, query,
		account.AccountID, account.TenantID, account.CompanyID, account.Code, account.Name,
		account.AccountType, account.CurrencyCode, nullIfEmpty(account.ParentAccountID),
		account.Description, account.IsActive,
		account.CreatedAt, account.CreatedBy, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	return mapError(err, "account "+account.Code)
}

func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, parent_account_id = $3, description = $4, is_active = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE account_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		account.AccountID, account.Name, nullIfEmpty(account.ParentAccountID), account.Description,
		account.IsActive, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "account "+account.AccountID)
	}
	return commandFailed(tag, "account")
}

func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1;`, accountID)
	if err != nil {
		return mapError(err, "account "+accountID)
	}
	return commandFailed(tag, "account")
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	a, err := scanAccount(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, mapError(err, "account")
	}
	return &a, nil
}

func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, tenantID, companyID, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND company_id = $2 AND code = $3;`
	a, err := scanAccount(r.db.QueryRow(ctx, query, tenantID, companyID, code))
	if err != nil {
		return nil, mapError(err, "account")
	}
	return &a, nil
}

// LockAccountsByIDs takes FOR SHARE locks: posting journals only need the
// accounts to stay put, so concurrent posts against the same accounts do
// not block each other while a deactivation does.
func (r *PgxAccountRepository) LockAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	accounts := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return accounts, nil
	}
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR SHARE;
	`
	rows, err := r.db.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, mapError(err, "accounts")
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(err, "account row")
		}
		accounts[a.AccountID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "accounts")
	}
	return accounts, nil
}

func (r *PgxAccountRepository) ListAccounts(ctx context.Context, tenantID, companyID string, limit, offset int) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND company_id = $2
		ORDER BY code
		LIMIT NULLIF($3, 0) OFFSET $4;
	`
	rows, err := r.db.Query(ctx, query, tenantID, companyID, limit, offset)
	if err != nil {
		return nil, mapError(err, "accounts")
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(err, "account row")
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "accounts")
	}
	return accounts, nil
}

func (r *PgxAccountRepository) CountLinesByAccount(ctx context.Context, accountID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_lines WHERE account_id = $1;`, accountID).Scan(&n)
	return n, mapError(err, "journal lines")
}

func (r *PgxAccountRepository) CountChildAccounts(ctx context.Context, accountID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE parent_account_id = $1;`, accountID).Scan(&n)
	return n, mapError(err, "child accounts")
}
