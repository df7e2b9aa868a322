package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_integrity_core/internal/utils/pagination"
)

type journalRepository struct {
	st *state
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepository)(nil)

func (r *journalRepository) FindJournalByID(_ context.Context, journalID string) (*domain.Journal, error) {
	j, ok := r.st.journals[journalID]
	if !ok {
		return nil, apperrors.NewNotFoundError("journal not found")
	}
	return &j, nil
}

func (r *journalRepository) FindJournalByIDForUpdate(ctx context.Context, journalID string) (*domain.Journal, error) {
	return r.FindJournalByID(ctx, journalID)
}

func (r *journalRepository) FindReversalOf(_ context.Context, originalJournalID string) (*domain.Journal, error) {
	for _, j := range r.st.journals {
		if j.OriginalJournalID == originalJournalID {
			return &j, nil
		}
	}
	return nil, apperrors.NewNotFoundError("reversal not found")
}

func (r *journalRepository) ListJournals(_ context.Context, filter portsrepo.JournalFilter, limit int, nextToken *string) ([]domain.Journal, *string, error) {
	limit = pagination.NormalizeLimit(limit)
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, err
		}
		cursor = &c
	}

	var all []domain.Journal
	for _, j := range r.st.journals {
		if j.TenantID != filter.TenantID || j.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if cursor != nil && !cursor.After(j.CreatedAt, j.JournalID) {
			continue
		}
		all = append(all, j)
	}
	slices.SortFunc(all, func(a, b domain.Journal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.JournalID, a.JournalID)
	})

	if len(all) <= limit {
		return all, nil, nil
	}
	page := all[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(last.CreatedAt, last.JournalID)
	return page, &token, nil
}

func (r *journalRepository) FindLinesByJournalID(_ context.Context, journalID string) ([]domain.JournalLine, error) {
	return slices.Clone(r.st.lines[journalID]), nil
}

func (r *journalRepository) SaveJournal(_ context.Context, journal domain.Journal, lines []domain.JournalLine) error {
	if _, exists := r.st.journals[journal.JournalID]; exists {
		return apperrors.Newf(apperrors.CodeDuplicateCode, "journal %s already exists", journal.JournalID)
	}
	journal.Lines = nil
	r.st.journals[journal.JournalID] = journal
	r.st.lines[journal.JournalID] = slices.Clone(lines)
	return nil
}

func (r *journalRepository) UpdateJournal(_ context.Context, journal domain.Journal) error {
	if _, ok := r.st.journals[journal.JournalID]; !ok {
		return apperrors.NewNotFoundError("journal not found")
	}
	if journal.JournalNumber > 0 {
		for _, other := range r.st.journals {
			if other.JournalID != journal.JournalID && other.TenantID == journal.TenantID &&
				other.CompanyID == journal.CompanyID && other.JournalNumber == journal.JournalNumber {
				return apperrors.Newf(apperrors.CodeDuplicateCode, "journal number %d already used", journal.JournalNumber)
			}
		}
	}
	journal.Lines = nil
	r.st.journals[journal.JournalID] = journal
	return nil
}

func (r *journalRepository) ReplaceLines(_ context.Context, journalID string, lines []domain.JournalLine) error {
	if _, ok := r.st.journals[journalID]; !ok {
		return apperrors.NewNotFoundError("journal not found")
	}
	r.st.lines[journalID] = slices.Clone(lines)
	return nil
}

func (r *journalRepository) DeleteJournal(_ context.Context, journalID string) error {
	if _, ok := r.st.journals[journalID]; !ok {
		return apperrors.NewNotFoundError("journal not found")
	}
	delete(r.st.journals, journalID)
	delete(r.st.lines, journalID)
	return nil
}

func (r *journalRepository) NextJournalNumber(_ context.Context, tenantID, companyID string) (int64, error) {
	key := tenantID + "|" + companyID
	r.st.sequences[key]++
	return r.st.sequences[key], nil
}
