package services

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetJournal retrieves a journal with its lines.
	GetJournal(ctx context.Context, scope domain.Scope, journalID string) (*domain.Journal, error)

	// ListJournals retrieves a page of journal headers in the scope's company.
	ListJournals(ctx context.Context, scope domain.Scope, params dto.ListJournalsParams) ([]domain.Journal, *string, error)
}

// JournalWriterSvc defines write operations for journal data
type JournalWriterSvc interface {
	// CreateJournal persists a new draft journal with its lines.
	CreateJournal(ctx context.Context, scope domain.Scope, req dto.CreateJournalRequest) (*domain.Journal, error)

	// UpdateJournal amends a draft journal. Posted journals fail with ImmutableJournal.
	UpdateJournal(ctx context.Context, scope domain.Scope, journalID string, req dto.UpdateJournalRequest) (*domain.Journal, error)

	// PostJournal checks the balance, assigns the next journal number and makes the journal immutable.
	PostJournal(ctx context.Context, scope domain.Scope, journalID string, req dto.PostJournalRequest) (*domain.Journal, error)

	// DeleteJournal removes a draft journal and returns it as it was.
	DeleteJournal(ctx context.Context, scope domain.Scope, journalID string, req dto.DeleteJournalRequest) (*domain.Journal, error)

	// ReverseJournal creates a draft that compensates a posted journal.
	ReverseJournal(ctx context.Context, scope domain.Scope, journalID string, req dto.ReverseJournalRequest) (*domain.Journal, error)
}

// JournalSvcFacade combines all journal-related service interfaces
// This is a facade for clients that need access to all operations
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
