package services_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
)

type AccountServiceTestSuite struct {
	ledgerSuite
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) TestCreateDefaultsToCompanyCurrency() {
	s.Equal("USD", s.cash.CurrencyCode)
	s.True(s.cash.IsActive)
	s.Equal(s.company.CompanyID, s.cash.CompanyID)
	s.Equal(adminUser, s.cash.CreatedBy)

	entries := s.auditEntries(s.scope, s.cash.AccountID)
	s.Require().Len(entries, 1)
	s.Equal(domain.ActionCreate, entries[0].Action)
	s.Equal(domain.EntityAccount, entries[0].EntityType)
	s.Equal(adminUser, entries[0].Actor)
	s.Nil(entries[0].Before)
	s.NotEmpty(entries[0].After)
}

func (s *AccountServiceTestSuite) TestDuplicateCode() {
	_, err := s.svc.Account.CreateAccount(s.ctx, s.scope, dto.CreateAccountRequest{
		Code: "1000", Name: "Other cash", AccountType: domain.Asset,
	})
	s.ErrorIs(err, apperrors.ErrDuplicateCode)
	s.Contains(apperrors.DetailOf(err), s.cash.AccountID)
}

func (s *AccountServiceTestSuite) TestSameCodeInAnotherTenant() {
	_, _, _, otherScope := s.provision("globex", "usr_other", "EUR")
	other := s.createAccount(otherScope, "1000", "Cash", domain.Asset)
	s.Equal("EUR", other.CurrencyCode)
}

func (s *AccountServiceTestSuite) TestParentChecks() {
	child, err := s.svc.Account.CreateAccount(s.ctx, s.scope, dto.CreateAccountRequest{
		Code: "1010", Name: "Petty cash", AccountType: domain.Asset, ParentAccountID: s.cash.AccountID,
	})
	s.Require().NoError(err)
	s.Equal(s.cash.AccountID, child.ParentAccountID)

	_, err = s.svc.Account.CreateAccount(s.ctx, s.scope, dto.CreateAccountRequest{
		Code: "1020", Name: "Orphan", AccountType: domain.Asset, ParentAccountID: "acct_missing",
	})
	s.ErrorIs(err, apperrors.ErrUnknownAccount)
}

func (s *AccountServiceTestSuite) TestMoveRejectsCycles() {
	child, err := s.svc.Account.CreateAccount(s.ctx, s.scope, dto.CreateAccountRequest{
		Code: "1010", Name: "Petty cash", AccountType: domain.Asset, ParentAccountID: s.cash.AccountID,
	})
	s.Require().NoError(err)
	grandchild, err := s.svc.Account.CreateAccount(s.ctx, s.scope, dto.CreateAccountRequest{
		Code: "1011", Name: "Drawer", AccountType: domain.Asset, ParentAccountID: child.AccountID,
	})
	s.Require().NoError(err)

	_, err = s.svc.Account.MoveAccount(s.ctx, s.scope, s.cash.AccountID, dto.MoveAccountRequest{ParentAccountID: grandchild.AccountID})
	s.ErrorIs(err, apperrors.ErrCycleDetected)

	_, err = s.svc.Account.MoveAccount(s.ctx, s.scope, s.cash.AccountID, dto.MoveAccountRequest{ParentAccountID: s.cash.AccountID})
	s.ErrorIs(err, apperrors.ErrCycleDetected)

	moved, err := s.svc.Account.MoveAccount(s.ctx, s.scope, grandchild.AccountID, dto.MoveAccountRequest{ParentAccountID: s.cash.AccountID})
	s.Require().NoError(err)
	s.Equal(s.cash.AccountID, moved.ParentAccountID)

	root, err := s.svc.Account.MoveAccount(s.ctx, s.scope, grandchild.AccountID, dto.MoveAccountRequest{})
	s.Require().NoError(err)
	s.Empty(root.ParentAccountID)
}

func (s *AccountServiceTestSuite) TestDeactivateReferencedAccount() {
	s.createJournal(debit(s.cash.AccountID, "10"), credit(s.revenue.AccountID, "10"))

	_, err := s.svc.Account.DeactivateAccount(s.ctx, s.scope, s.cash.AccountID, dto.DeactivateAccountRequest{})
	s.ErrorIs(err, apperrors.ErrReferencedEntity)

	_, err = s.svc.Account.DeleteAccount(s.ctx, s.scope, s.cash.AccountID, dto.DeleteAccountRequest{})
	s.ErrorIs(err, apperrors.ErrReferencedEntity)
}

func (s *AccountServiceTestSuite) TestDeactivateIsRecordedOnce() {
	unused := s.createAccount(s.scope, "5000", "Travel", domain.Expense)

	first, err := s.svc.Account.DeactivateAccount(s.ctx, s.scope, unused.AccountID, dto.DeactivateAccountRequest{})
	s.Require().NoError(err)
	s.False(first.IsActive)

	second, err := s.svc.Account.DeactivateAccount(s.ctx, s.scope, unused.AccountID, dto.DeactivateAccountRequest{})
	s.Require().NoError(err)
	s.False(second.IsActive)

	entries := s.auditEntries(s.scope, unused.AccountID)
	s.Len(entries, 2, "create and one deactivation")
}

func (s *AccountServiceTestSuite) TestDeleteLeafAccount() {
	parent := s.createAccount(s.scope, "6000", "Overheads", domain.Expense)
	child, err := s.svc.Account.CreateAccount(s.ctx, s.scope, dto.CreateAccountRequest{
		Code: "6010", Name: "Rent", AccountType: domain.Expense, ParentAccountID: parent.AccountID,
	})
	s.Require().NoError(err)

	_, err = s.svc.Account.DeleteAccount(s.ctx, s.scope, parent.AccountID, dto.DeleteAccountRequest{})
	s.ErrorIs(err, apperrors.ErrReferencedEntity)

	_, err = s.svc.Account.DeleteAccount(s.ctx, s.scope, child.AccountID, dto.DeleteAccountRequest{})
	s.Require().NoError(err)
	_, err = s.svc.Account.DeleteAccount(s.ctx, s.scope, parent.AccountID, dto.DeleteAccountRequest{})
	s.Require().NoError(err)

	_, err = s.svc.Account.GetAccount(s.ctx, s.scope, parent.AccountID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *AccountServiceTestSuite) TestListAccountsOrderedByCode() {
	s.createAccount(s.scope, "2000", "Payables", domain.Liability)

	accounts, err := s.svc.Account.ListAccounts(s.ctx, s.scope, dto.ListAccountsParams{})
	s.Require().NoError(err)
	s.Require().Len(accounts, 3)
	s.Equal([]string{"1000", "2000", "4000"}, []string{accounts[0].Code, accounts[1].Code, accounts[2].Code})

	page, err := s.svc.Account.ListAccounts(s.ctx, s.scope, dto.ListAccountsParams{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("2000", page[0].Code)
}

func (s *AccountServiceTestSuite) TestCreateValidation() {
	_, err := s.svc.Account.CreateAccount(s.ctx, s.scope, dto.CreateAccountRequest{Code: "9", Name: "x", AccountType: "BOGUS"})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Account.CreateAccount(s.ctx, s.tenantScope, dto.CreateAccountRequest{Code: "9", Name: "x", AccountType: domain.Asset})
	s.ErrorIs(err, apperrors.ErrScopeViolation, "accounts need a company scope")
}
