package services_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
)

type JournalServiceTestSuite struct {
	ledgerSuite
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

func (s *JournalServiceTestSuite) TestPostBalancedJournal() {
	journal := s.createJournal(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))
	s.Equal(domain.Draft, journal.Status)
	s.Zero(journal.JournalNumber)
	s.True(journal.TotalDebit.Equal(decimal.NewFromInt(100)))
	s.True(journal.ExchangeRate.Equal(decimal.NewFromInt(1)))

	posted, err := s.svc.Journal.PostJournal(s.ctx, s.scope, journal.JournalID, dto.PostJournalRequest{})
	s.Require().NoError(err)
	s.Equal(domain.Posted, posted.Status)
	s.Equal(int64(1), posted.JournalNumber)
	s.Equal(adminUser, posted.PostedBy)
	s.Require().NotNil(posted.PostedAt)

	got, err := s.svc.Journal.GetJournal(s.ctx, s.scope, journal.JournalID)
	s.Require().NoError(err)
	s.Equal(domain.Posted, got.Status)
	s.Len(got.Lines, 2)
}

func (s *JournalServiceTestSuite) TestPostUnbalancedJournalFails() {
	journal := s.createJournal(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "50"))

	_, err := s.svc.Journal.PostJournal(s.ctx, s.scope, journal.JournalID, dto.PostJournalRequest{})
	s.ErrorIs(err, apperrors.ErrUnbalancedJournal)

	got, err := s.svc.Journal.GetJournal(s.ctx, s.scope, journal.JournalID)
	s.Require().NoError(err)
	s.Equal(domain.Draft, got.Status)
	s.Zero(got.JournalNumber)
}

func (s *JournalServiceTestSuite) TestPostTwiceIsNoOpButUpdateIsRejected() {
	journal := s.createJournal(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))

	first, err := s.svc.Journal.PostJournal(s.ctx, s.scope, journal.JournalID, dto.PostJournalRequest{})
	s.Require().NoError(err)
	second, err := s.svc.Journal.PostJournal(s.ctx, s.scope, journal.JournalID, dto.PostJournalRequest{})
	s.Require().NoError(err)
	s.Equal(first.JournalNumber, second.JournalNumber)
	s.Equal(first.PostedAt, second.PostedAt)

	posts := 0
	for _, e := range s.auditEntries(s.scope, journal.JournalID) {
		if e.Action == domain.ActionPost {
			posts++
		}
	}
	s.Equal(1, posts)

	desc := "changed"
	_, err = s.svc.Journal.UpdateJournal(s.ctx, s.scope, journal.JournalID, dto.UpdateJournalRequest{Description: &desc})
	s.ErrorIs(err, apperrors.ErrImmutableJournal)

	_, err = s.svc.Journal.DeleteJournal(s.ctx, s.scope, journal.JournalID, dto.DeleteJournalRequest{})
	s.ErrorIs(err, apperrors.ErrImmutableJournal)
}

func (s *JournalServiceTestSuite) TestJournalNumbersAreGapFree() {
	unbalanced := s.createJournal(debit(s.cash.AccountID, "10"), credit(s.revenue.AccountID, "5"))
	a := s.createJournal(debit(s.cash.AccountID, "10"), credit(s.revenue.AccountID, "10"))
	b := s.createJournal(debit(s.cash.AccountID, "20"), credit(s.revenue.AccountID, "20"))

	_, err := s.svc.Journal.PostJournal(s.ctx, s.scope, unbalanced.JournalID, dto.PostJournalRequest{})
	s.Require().Error(err)

	postedA, err := s.svc.Journal.PostJournal(s.ctx, s.scope, a.JournalID, dto.PostJournalRequest{})
	s.Require().NoError(err)
	postedB, err := s.svc.Journal.PostJournal(s.ctx, s.scope, b.JournalID, dto.PostJournalRequest{})
	s.Require().NoError(err)

	s.Equal(int64(1), postedA.JournalNumber)
	s.Equal(int64(2), postedB.JournalNumber)
}

func (s *JournalServiceTestSuite) TestCreateJournalLineValidation() {
	tests := []struct {
		name  string
		lines []dto.JournalLineInput
		err   error
	}{
		{
			name:  "single line",
			lines: []dto.JournalLineInput{debit(s.cash.AccountID, "10")},
			err:   apperrors.ErrInvalidLine,
		},
		{
			name: "debit and credit on one line",
			lines: []dto.JournalLineInput{
				{AccountID: s.cash.AccountID, Debit: decimal.NewFromInt(5), Credit: decimal.NewFromInt(5)},
				credit(s.revenue.AccountID, "5"),
			},
			err: apperrors.ErrInvalidLine,
		},
		{
			name: "zero line",
			lines: []dto.JournalLineInput{
				{AccountID: s.cash.AccountID},
				credit(s.revenue.AccountID, "5"),
			},
			err: apperrors.ErrInvalidLine,
		},
		{
			name:  "too many decimals",
			lines: []dto.JournalLineInput{debit(s.cash.AccountID, "10.001"), credit(s.revenue.AccountID, "10.001")},
			err:   apperrors.ErrInvalidLine,
		},
		{
			name:  "unknown account",
			lines: []dto.JournalLineInput{debit("acct_missing", "10"), credit(s.revenue.AccountID, "10")},
			err:   apperrors.ErrUnknownAccount,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, s.journalRequest(tt.lines...))
			s.ErrorIs(err, tt.err)
		})
	}
}

func (s *JournalServiceTestSuite) TestInactiveAccountRejectsLines() {
	savings := s.createAccount(s.scope, "1100", "Savings", domain.Asset)
	_, err := s.svc.Account.DeactivateAccount(s.ctx, s.scope, savings.AccountID, dto.DeactivateAccountRequest{})
	s.Require().NoError(err)

	_, err = s.svc.Journal.CreateJournal(s.ctx, s.scope, s.journalRequest(
		debit(savings.AccountID, "10"), credit(s.revenue.AccountID, "10")))
	s.ErrorIs(err, apperrors.ErrInvalidLine)
}

func (s *JournalServiceTestSuite) TestUpdateDraftReplacesLinesAndTotals() {
	journal := s.createJournal(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "50"))

	desc := "corrected"
	updated, err := s.svc.Journal.UpdateJournal(s.ctx, s.scope, journal.JournalID, dto.UpdateJournalRequest{
		Description: &desc,
		Lines:       []dto.JournalLineInput{debit(s.cash.AccountID, "50"), credit(s.revenue.AccountID, "50")},
	})
	s.Require().NoError(err)
	s.Equal("corrected", updated.Description)
	s.True(updated.TotalDebit.Equal(decimal.NewFromInt(50)))
	s.True(updated.TotalCredit.Equal(decimal.NewFromInt(50)))

	posted, err := s.svc.Journal.PostJournal(s.ctx, s.scope, journal.JournalID, dto.PostJournalRequest{})
	s.Require().NoError(err)
	s.Equal(domain.Posted, posted.Status)
}

func (s *JournalServiceTestSuite) TestDeleteDraft() {
	journal := s.createJournal(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))

	deleted, err := s.svc.Journal.DeleteJournal(s.ctx, s.scope, journal.JournalID, dto.DeleteJournalRequest{})
	s.Require().NoError(err)
	s.Equal(journal.JournalID, deleted.JournalID)

	_, err = s.svc.Journal.GetJournal(s.ctx, s.scope, journal.JournalID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *JournalServiceTestSuite) TestForeignCurrencyUsesTimelineRate() {
	_, err := s.svc.FxRate.AddRate(s.ctx, s.scope, dto.AddFxRateRequest{
		BaseCurrency:  "EUR",
		QuoteCurrency: "USD",
		Rate:          decimal.RequireFromString("1.0850"),
		ValidFrom:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	req := s.journalRequest(debit(s.cash.AccountID, "10.50"), credit(s.revenue.AccountID, "10.50"))
	req.CurrencyCode = "EUR"
	journal, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)
	s.True(journal.ExchangeRate.Equal(decimal.RequireFromString("1.085")))

	req.CurrencyCode = "GBP"
	_, err = s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.ErrorIs(err, apperrors.ErrNoRateFound)

	explicit := decimal.RequireFromString("1.27")
	req.ExchangeRate = &explicit
	journal, err = s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)
	s.True(journal.ExchangeRate.Equal(explicit))
}

func (s *JournalServiceTestSuite) TestZeroDecimalCurrency() {
	req := s.journalRequest(debit(s.cash.AccountID, "1000.5"), credit(s.revenue.AccountID, "1000.5"))
	req.CurrencyCode = "JPY"
	rate := decimal.RequireFromString("0.0067")
	req.ExchangeRate = &rate

	_, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.ErrorIs(err, apperrors.ErrInvalidLine)
}

func (s *JournalServiceTestSuite) TestReverseJournal() {
	journal := s.createJournal(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))

	_, err := s.svc.Journal.ReverseJournal(s.ctx, s.scope, journal.JournalID, dto.ReverseJournalRequest{})
	s.ErrorIs(err, apperrors.ErrValidation, "drafts are deleted, not reversed")

	_, err = s.svc.Journal.PostJournal(s.ctx, s.scope, journal.JournalID, dto.PostJournalRequest{})
	s.Require().NoError(err)

	reversal, err := s.svc.Journal.ReverseJournal(s.ctx, s.scope, journal.JournalID, dto.ReverseJournalRequest{})
	s.Require().NoError(err)
	s.Equal(domain.Draft, reversal.Status)
	s.Equal(journal.JournalID, reversal.OriginalJournalID)
	s.Require().Len(reversal.Lines, 2)
	s.Equal(s.cash.AccountID, reversal.Lines[0].AccountID)
	s.True(reversal.Lines[0].Credit.Equal(decimal.NewFromInt(100)))
	s.True(reversal.Lines[0].Debit.IsZero())

	_, err = s.svc.Journal.ReverseJournal(s.ctx, s.scope, journal.JournalID, dto.ReverseJournalRequest{})
	s.ErrorIs(err, apperrors.ErrValidation, "a journal is reversed at most once")

	posted, err := s.svc.Journal.PostJournal(s.ctx, s.scope, reversal.JournalID, dto.PostJournalRequest{})
	s.Require().NoError(err)
	s.Equal(int64(2), posted.JournalNumber)

	original, err := s.svc.Journal.GetJournal(s.ctx, s.scope, journal.JournalID)
	s.Require().NoError(err)
	s.Equal(domain.Posted, original.Status)
	s.True(original.TotalDebit.Equal(decimal.NewFromInt(100)))
}

func (s *JournalServiceTestSuite) TestListJournalsPaginates() {
	for i := 0; i < 3; i++ {
		s.createJournal(debit(s.cash.AccountID, "1"), credit(s.revenue.AccountID, "1"))
		s.clock.Advance(time.Second)
	}

	page, next, err := s.svc.Journal.ListJournals(s.ctx, s.scope, dto.ListJournalsParams{Limit: 2})
	s.Require().NoError(err)
	s.Len(page, 2)
	s.Require().NotNil(next)

	rest, next, err := s.svc.Journal.ListJournals(s.ctx, s.scope, dto.ListJournalsParams{Limit: 2, NextToken: next})
	s.Require().NoError(err)
	s.Len(rest, 1)
	s.Nil(next)
	s.True(page[1].CreatedAt.After(rest[0].CreatedAt))

	posted, _, err := s.svc.Journal.ListJournals(s.ctx, s.scope, dto.ListJournalsParams{Status: domain.Posted})
	s.Require().NoError(err)
	s.Empty(posted)
}

func (s *JournalServiceTestSuite) TestReadOnlyMemberCannotWrite() {
	_, err := s.svc.Tenant.AddMember(s.ctx, s.tenantScope, dto.AddMemberRequest{UserID: "usr_viewer", Role: domain.RoleReadOnly})
	s.Require().NoError(err)
	viewer, err := s.svc.Scope.ResolveScope(s.ctx, domain.Claims{Subject: "usr_viewer", TenantID: s.tenant.TenantID, CompanyID: s.company.CompanyID})
	s.Require().NoError(err)

	_, err = s.svc.Journal.CreateJournal(s.ctx, viewer, s.journalRequest(debit(s.cash.AccountID, "1"), credit(s.revenue.AccountID, "1")))
	s.ErrorIs(err, apperrors.ErrScopeViolation)

	_, _, err = s.svc.Journal.ListJournals(s.ctx, viewer, dto.ListJournalsParams{})
	s.NoError(err)
}

// An edit that unbalances a draft and a concurrent post are serialised: the
// journal ends up either posted with its original balanced lines, or a draft
// carrying the edit.
func (s *JournalServiceTestSuite) TestPostRacesLineEdit() {
	const rounds = 20
	for i := 0; i < rounds; i++ {
		draft := s.createJournal(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))

		var postErr, updateErr error
		var g errgroup.Group
		g.Go(func() error {
			_, postErr = s.svc.Journal.PostJournal(s.ctx, s.scope, draft.JournalID, dto.PostJournalRequest{})
			return nil
		})
		g.Go(func() error {
			_, updateErr = s.svc.Journal.UpdateJournal(s.ctx, s.scope, draft.JournalID, dto.UpdateJournalRequest{
				Lines: []dto.JournalLineInput{debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "60")},
			})
			return nil
		})
		s.Require().NoError(g.Wait())

		got, err := s.svc.Journal.GetJournal(s.ctx, s.scope, draft.JournalID)
		s.Require().NoError(err)

		if got.Status == domain.Posted {
			s.NoError(postErr)
			s.ErrorIs(updateErr, apperrors.ErrImmutableJournal)
			s.True(got.TotalDebit.Equal(got.TotalCredit))
			lineDebit, lineCredit := domain.SumLines(got.Lines)
			s.True(lineDebit.Equal(got.TotalDebit))
			s.True(lineCredit.Equal(got.TotalCredit))
			s.True(got.TotalDebit.Equal(decimal.NewFromInt(100)))
			continue
		}
		s.NoError(updateErr)
		s.ErrorIs(postErr, apperrors.ErrUnbalancedJournal)
		s.True(got.TotalCredit.Equal(decimal.NewFromInt(60)))
	}
}
