package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_integrity_core/internal/utils/pagination"
)

type PgxJournalRepository struct {
	db DBTX
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const journalColumns = `journal_id, tenant_id, company_id, journal_number, journal_date, description, reference,
		       currency_code, exchange_rate, total_debit, total_credit, status,
		       original_journal_id, posted_at, posted_by,
		       created_at, created_by, last_updated_at, last_updated_by`

func scanJournal(row pgx.Row) (domain.Journal, error) {
	var j domain.Journal
	var originalID, postedBy *string
	err := row.Scan(
		&j.JournalID, &j.TenantID, &j.CompanyID, &j.JournalNumber, &j.JournalDate, &j.Description, &j.Reference,
		&j.CurrencyCode, &j.ExchangeRate, &j.TotalDebit, &j.TotalCredit, &j.Status,
		&originalID, &j.PostedAt, &postedBy,
		&j.CreatedAt, &j.CreatedBy, &j.LastUpdatedAt, &j.LastUpdatedBy,
	)
	j.OriginalJournalID = derefString(originalID)
	j.PostedBy = derefString(postedBy)
	return j, err
}

func (r *PgxJournalRepository) findJournal(ctx context.Context, query string, args ...any) (*domain.Journal, error) {
	j, err := scanJournal(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "journal")
	}
	return &j, nil
}

func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	return r.findJournal(ctx, `SELECT `+journalColumns+` FROM journals WHERE journal_id = $1;`, journalID)
}

// FindJournalByIDForUpdate locks the header row so two posts of the same
// draft serialise and the second one observes POSTED.
func (r *PgxJournalRepository) FindJournalByIDForUpdate(ctx context.Context, journalID string) (*domain.Journal, error) {
	return r.findJournal(ctx, `SELECT `+journalColumns+` FROM journals WHERE journal_id = $1 FOR UPDATE;`, journalID)
}

func (r *PgxJournalRepository) FindReversalOf(ctx context.Context, originalJournalID string) (*domain.Journal, error) {
	return r.findJournal(ctx, `SELECT `+journalColumns+` FROM journals WHERE original_journal_id = $1;`, originalJournalID)
}

// ListJournals pages by (created_at, journal_id) descending, fetching one
// extra row to learn whether another page exists.
func (r *PgxJournalRepository) ListJournals(ctx context.Context, filter portsrepo.JournalFilter, limit int, nextToken *string) ([]domain.Journal, *string, error) {
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

	query := `
		SELECT ` + journalColumns + `
		FROM journals
		WHERE tenant_id = $1 AND company_id = $2
		  AND ($3 = '' OR status = $3)
		  AND ($4::timestamptz IS NULL OR (created_at, journal_id) < ($4::timestamptz, $5))
		ORDER BY created_at DESC, journal_id DESC
		LIMIT $6;
	`
	rows, err := r.db.Query(ctx, query, filter.TenantID, filter.CompanyID, string(filter.Status), cursorTime, cursorID, limit+1)
	if err != nil {
		return nil, nil, mapError(err, "journals")
	}
	defer rows.Close()

	journals := []domain.Journal{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, nil, mapError(err, "journal row")
		}
		journals = append(journals, j)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapError(err, "journals")
	}

	if len(journals) <= limit {
		return journals, nil, nil
	}
	journals = journals[:limit]
	last := journals[len(journals)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.JournalID)
	return journals, &token, nil
}

func (r *PgxJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, journal_id, line_no, account_id, debit, credit, description
		FROM journal_lines
		WHERE journal_id = $1
		ORDER BY line_no;
	`
	rows, err := r.db.Query(ctx, query, journalID)
	if err != nil {
		return nil, mapError(err, "journal lines")
	}
	defer rows.Close()

	lines := []domain.JournalLine{}
	for rows.Next() {
		var l domain.JournalLine
		if err := rows.Scan(&l.LineID, &l.JournalID, &l.LineNo, &l.AccountID, &l.Debit, &l.Credit, &l.Description); err != nil {
			return nil, mapError(err, "journal line row")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "journal lines")
	}
	return lines, nil
}

// SaveJournal inserts the header, then all lines in one batch.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) error {
	query := `
		INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := r.db.Exec(ctx, query,
		journal.JournalID, journal.TenantID, journal.CompanyID, journal.JournalNumber, journal.JournalDate,
		journal.Description, journal.Reference, journal.CurrencyCode, journal.ExchangeRate,
		journal.TotalDebit, journal.TotalCredit, journal.Status,
		nullIfEmpty(journal.OriginalJournalID), journal.PostedAt, nullIfEmpty(journal.PostedBy),
		journal.CreatedAt, journal.CreatedBy, journal.LastUpdatedAt, journal.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "journal "+journal.JournalID)
	}
	return r.insertLines(ctx, journal.JournalID, lines)
}

func (r *PgxJournalRepository) insertLines(ctx context.Context, journalID string, lines []domain.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}
	lineQuery := `
		INSERT INTO journal_lines (line_id, journal_id, line_no, account_id, debit, credit, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(lineQuery, l.LineID, journalID, l.LineNo, l.AccountID, l.Debit, l.Credit, l.Description)
	}

	// Close reports the first failing statement of the batch.
	br := r.db.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return mapError(err, "lines of journal "+journalID)
	}
	return nil
}

func (r *PgxJournalRepository) UpdateJournal(ctx context.Context, journal domain.Journal) error {
	query := `
		UPDATE journals
		SET journal_number = $2, journal_date = $3, description = $4, reference = $5,
		    exchange_rate = $6, total_debit = $7, total_credit = $8, status = $9,
		    posted_at = $10, posted_by = $11, last_updated_at = $12, last_updated_by = $13
		WHERE journal_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		journal.JournalID, journal.JournalNumber, journal.JournalDate, journal.Description, journal.Reference,
		journal.ExchangeRate, journal.TotalDebit, journal.TotalCredit, journal.Status,
		journal.PostedAt, nullIfEmpty(journal.PostedBy), journal.LastUpdatedAt, journal.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "journal "+journal.JournalID)
	}
	return commandFailed(tag, "journal")
}

func (r *PgxJournalRepository) ReplaceLines(ctx context.Context, journalID string, lines []domain.JournalLine) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id = $1;`, journalID); err != nil {
		return mapError(err, "lines of journal "+journalID)
	}
	return r.insertLines(ctx, journalID, lines)
}

// DeleteJournal relies on ON DELETE CASCADE for the lines.
func (r *PgxJournalRepository) DeleteJournal(ctx context.Context, journalID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM journals WHERE journal_id = $1;`, journalID)
	if err != nil {
		return mapError(err, "journal "+journalID)
	}
	return commandFailed(tag, "journal")
}

// NextJournalNumber bumps the per-company counter. The row lock taken by the
// upsert is held until commit, so numbers are handed out one transaction at
// a time and a rollback returns the number.
func (r *PgxJournalRepository) NextJournalNumber(ctx context.Context, tenantID, companyID string) (int64, error) {
	query := `
		INSERT INTO journal_sequences (tenant_id, company_id, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, company_id) DO UPDATE SET last_number = journal_sequences.last_number + 1
		RETURNING last_number;
	`
	var n int64
	if err := r.db.QueryRow(ctx, query, tenantID, companyID).Scan(&n); err != nil {
		return 0, mapError(err, "journal sequence")
	}
	return n, nil
}
