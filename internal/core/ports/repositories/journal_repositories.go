package repositories

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
)

// JournalFilter narrows ListJournals.
type JournalFilter struct {
	TenantID  string
	CompanyID string
	Status    domain.JournalStatus // empty means any
}

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindJournalByID retrieves a specific journal header by its unique identifier.
	FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)

	// FindJournalByIDForUpdate retrieves the header and locks the row until the unit of work ends.
	FindJournalByIDForUpdate(ctx context.Context, journalID string) (*domain.Journal, error)

	// FindReversalOf returns the journal reversing originalJournalID, or apperrors.ErrNotFound.
	FindReversalOf(ctx context.Context, originalJournalID string) (*domain.Journal, error)

	// ListJournals retrieves a page of journal headers, newest first, using token-based pagination.
	// It returns the journals, a token for the next page, and an error.
	ListJournals(ctx context.Context, filter JournalFilter, limit int, nextToken *string) ([]domain.Journal, *string, error)
}

// JournalLineReader defines read operations for journal lines
type JournalLineReader interface {
	// FindLinesByJournalID retrieves the lines of a journal ordered by line number.
	FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// SaveJournal persists a journal header and its lines.
	SaveJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) error

	// UpdateJournal updates the header (description, date, rate, totals, status, number, posting fields).
	UpdateJournal(ctx context.Context, journal domain.Journal) error

	// ReplaceLines swaps all lines of a draft journal.
	ReplaceLines(ctx context.Context, journalID string, lines []domain.JournalLine) error

	// DeleteJournal removes a draft journal and its lines.
	DeleteJournal(ctx context.Context, journalID string) error

	// NextJournalNumber increments and returns the posting counter of a company.
	// The increment is part of the unit of work and rolls back with it.
	NextJournalNumber(ctx context.Context, tenantID, companyID string) (int64, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
// This is a facade for clients that need access to all operations
type JournalRepositoryFacade interface {
	JournalReader
	JournalLineReader
	JournalWriter
}
