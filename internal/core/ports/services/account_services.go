package services

import (
	"context"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
)

// AccountReaderSvc defines read operations for the chart of accounts
type AccountReaderSvc interface {
	GetAccount(ctx context.Context, scope domain.Scope, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, scope domain.Scope, params dto.ListAccountsParams) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for the chart of accounts
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, scope domain.Scope, req dto.CreateAccountRequest) (*domain.Account, error)

	// DeactivateAccount fails with ReferencedEntity while any journal line uses the account.
	DeactivateAccount(ctx context.Context, scope domain.Scope, accountID string, req dto.DeactivateAccountRequest) (*domain.Account, error)

	// MoveAccount re-parents an account, rejecting cycles.
	MoveAccount(ctx context.Context, scope domain.Scope, accountID string, req dto.MoveAccountRequest) (*domain.Account, error)

	// DeleteAccount removes an unreferenced leaf account.
	DeleteAccount(ctx context.Context, scope domain.Scope, accountID string, req dto.DeleteAccountRequest) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
