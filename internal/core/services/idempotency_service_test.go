package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/core/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/repositories/memory"
)

type IdempotencyTestSuite struct {
	ledgerSuite
}

func TestIdempotencyTestSuite(t *testing.T) {
	suite.Run(t, new(IdempotencyTestSuite))
}

func (s *IdempotencyTestSuite) countJournals() int {
	journals, _, err := s.svc.Journal.ListJournals(s.ctx, s.scope, dto.ListJournalsParams{Limit: 100})
	s.Require().NoError(err)
	return len(journals)
}

func (s *IdempotencyTestSuite) TestConcurrentDuplicatesCreateOneJournal() {
	req := s.journalRequest(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))
	req.IdempotencyKey = "invoice-42"

	const callers = 8
	ids := make([]string, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			journal, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
			if err != nil {
				return err
			}
			ids[i] = journal.JournalID
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	for _, id := range ids[1:] {
		s.Equal(ids[0], id)
	}
	s.Equal(1, s.countJournals())
}

func (s *IdempotencyTestSuite) TestReplayReturnsCachedResult() {
	req := s.journalRequest(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))
	req.IdempotencyKey = "k1"

	first, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)
	second, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)

	s.Equal(first.JournalID, second.JournalID)
	s.True(first.TotalDebit.Equal(second.TotalDebit))
	s.Len(second.Lines, 2)
	s.Equal(1, s.countJournals())
}

func (s *IdempotencyTestSuite) TestDifferentPayloadConflicts() {
	req := s.journalRequest(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))
	req.IdempotencyKey = "k1"
	_, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)

	req.Description = "something else"
	_, err = s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.ErrorIs(err, apperrors.ErrIdempotencyConflict)
}

func (s *IdempotencyTestSuite) TestExpiredRecordIsTreatedAsAbsent() {
	req := s.journalRequest(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))
	req.IdempotencyKey = "k1"
	_, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	req.Description = "reused after expiry"
	_, err = s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)
	s.Equal(2, s.countJournals())
}

func (s *IdempotencyTestSuite) TestFailedCommandReleasesKey() {
	req := s.journalRequest(debit("acct_missing", "100"), credit(s.revenue.AccountID, "100"))
	req.IdempotencyKey = "k1"
	_, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.ErrorIs(err, apperrors.ErrUnknownAccount)

	// same payload may be retried; nothing was cached
	_, err = s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.ErrorIs(err, apperrors.ErrUnknownAccount)
}

func (s *IdempotencyTestSuite) TestKeysAreTenantScoped() {
	_, _, _, otherScope := s.provision("globex", "usr_other", "USD")
	otherCash := s.createAccount(otherScope, "1000", "Cash", domain.Asset)
	otherRevenue := s.createAccount(otherScope, "4000", "Revenue", domain.Revenue)

	req := s.journalRequest(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))
	req.IdempotencyKey = "shared-key"
	mine, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)

	other := s.journalRequest(debit(otherCash.AccountID, "100"), credit(otherRevenue.AccountID, "100"))
	other.IdempotencyKey = "shared-key"
	theirs, err := s.svc.Journal.CreateJournal(s.ctx, otherScope, other)
	s.Require().NoError(err)
	s.NotEqual(mine.JournalID, theirs.JournalID)
}

func (s *IdempotencyTestSuite) TestKeysDoNotCrossCompanies() {
	sub, err := s.svc.Tenant.CreateCompany(s.ctx, s.tenantScope, dto.CreateCompanyRequest{
		Code:         "SUB",
		Name:         "acme Subsidiary",
		BaseCurrency: "USD",
	})
	s.Require().NoError(err)
	subScope, err := s.svc.Scope.ResolveScope(s.ctx, domain.Claims{Subject: adminUser, TenantID: s.tenant.TenantID, CompanyID: sub.CompanyID})
	s.Require().NoError(err)

	req := dto.CreateAccountRequest{Code: "1100", Name: "Petty cash", AccountType: domain.Asset, IdempotencyKey: "setup-1"}
	mine, err := s.svc.Account.CreateAccount(s.ctx, s.scope, req)
	s.Require().NoError(err)
	s.Equal(s.company.CompanyID, mine.CompanyID)

	// same key and body from the sibling company is never answered with ours
	theirs, err := s.svc.Account.CreateAccount(s.ctx, subScope, req)
	s.ErrorIs(err, apperrors.ErrIdempotencyConflict)
	s.Nil(theirs)

	accounts, err := s.svc.Account.ListAccounts(s.ctx, subScope, dto.ListAccountsParams{Limit: 100})
	s.Require().NoError(err)
	s.Empty(accounts)

	req.IdempotencyKey = "sub-setup-1"
	theirs, err = s.svc.Account.CreateAccount(s.ctx, subScope, req)
	s.Require().NoError(err)
	s.Equal(sub.CompanyID, theirs.CompanyID)
	s.NotEqual(mine.AccountID, theirs.AccountID)
}

func (s *IdempotencyTestSuite) TestKeysDoNotCrossActors() {
	_, err := s.svc.Tenant.AddMember(s.ctx, s.tenantScope, dto.AddMemberRequest{UserID: "usr_clerk", Role: domain.RoleMember})
	s.Require().NoError(err)
	clerk, err := s.svc.Scope.ResolveScope(s.ctx, domain.Claims{Subject: "usr_clerk", TenantID: s.tenant.TenantID, CompanyID: s.company.CompanyID})
	s.Require().NoError(err)

	req := s.journalRequest(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))
	req.IdempotencyKey = "k1"
	_, err = s.svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)

	_, err = s.svc.Journal.CreateJournal(s.ctx, clerk, req)
	s.ErrorIs(err, apperrors.ErrIdempotencyConflict)
	s.Equal(1, s.countJournals())
}

// lostResultRepo never manages to record a result, as when the process dies
// between the command's commit and Complete.
type lostResultRepo struct {
	*memory.IdempotencyRepository
}

func (r lostResultRepo) Complete(context.Context, string, string, string, []byte, time.Time) error {
	return apperrors.New(apperrors.CodeInternal, "result store unreachable")
}

func (s *IdempotencyTestSuite) TestUnrecordedResultHoldsKeyUntilClaimExpires() {
	provider := s.store.Provider()
	provider.IdempotencyRepo = lostResultRepo{memory.NewIdempotencyRepository()}
	svc := services.NewServiceContainerWithBase(provider, s.base, services.IdempotencyConfig{
		WaitTimeout:  20 * time.Millisecond,
		PollInterval: time.Millisecond,
	})

	req := s.journalRequest(debit(s.cash.AccountID, "100"), credit(s.revenue.AccountID, "100"))
	req.IdempotencyKey = "k-lost"
	_, err := svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)

	// within the claim lifetime a duplicate waits and gives up instead of re-running
	_, err = svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.ErrorIs(err, apperrors.ErrUnavailable)
	s.Equal(1, s.countJournals())

	s.clock.Advance(6 * time.Minute)
	_, err = svc.Journal.CreateJournal(s.ctx, s.scope, req)
	s.Require().NoError(err)
	s.Equal(2, s.countJournals())
}

// blockingRepo holds every claim in flight so Await runs into its timeout.
type blockingRepo struct {
	*memory.IdempotencyRepository
}

func (r blockingRepo) Begin(context.Context, domain.IdempotencyClaim) (domain.BeginResult, error) {
	return domain.BeginResult{Outcome: domain.BeginInFlight}, nil
}

func TestAwaitGivesUpWhileInFlight(t *testing.T) {
	svc := services.NewIdempotencyService(blockingRepo{memory.NewIdempotencyRepository()}, services.IdempotencyConfig{
		WaitTimeout:  30 * time.Millisecond,
		PollInterval: time.Millisecond,
	}, services.BaseService{})

	scope := domain.Scope{TenantID: "tnt_1", Actor: "u", Role: domain.RoleMember}
	_, err := svc.Await(context.Background(), scope, "k", "hash")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestBeginRejectsInvalidKeys(t *testing.T) {
	svc := services.NewIdempotencyService(memory.NewIdempotencyRepository(), services.IdempotencyConfig{}, services.BaseService{})

	_, err := svc.Begin(context.Background(), domain.Scope{Actor: "u"}, "k", "h")
	assert.ErrorIs(t, err, apperrors.ErrScopeViolation)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Begin(context.Background(), domain.Scope{TenantID: "tnt_1"}, string(long), "h")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBeginCompleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := services.NewIdempotencyService(memory.NewIdempotencyRepository(), services.IdempotencyConfig{}, services.BaseService{})
	scope := domain.Scope{TenantID: "tnt_1", Actor: "u", Role: domain.RoleMember}

	res, err := svc.Begin(ctx, scope, "k", "h")
	require.NoError(t, err)
	require.Equal(t, domain.BeginFresh, res.Outcome)

	again, err := svc.Begin(ctx, scope, "k", "h")
	require.NoError(t, err)
	assert.Equal(t, domain.BeginInFlight, again.Outcome)

	require.NoError(t, svc.Complete(ctx, scope, "k", res.Token, map[string]string{"journalID": "jrnl_1"}))

	done, err := svc.Begin(ctx, scope, "k", "h")
	require.NoError(t, err)
	assert.Equal(t, domain.BeginCompleted, done.Outcome)
	assert.JSONEq(t, `{"journalID":"jrnl_1"}`, string(done.Response))

	err = svc.Complete(ctx, scope, "k", "stale-token", "x")
	assert.ErrorIs(t, err, apperrors.ErrIdempotencyConflict)
}

func TestHashPayload(t *testing.T) {
	scope := domain.Scope{TenantID: "tnt_1", CompanyID: "co_1", Actor: "u", Role: domain.RoleMember}
	payload := map[string]string{"a": "1"}

	a, err := services.HashPayload(scope, "CreateJournal", payload)
	require.NoError(t, err)
	b, err := services.HashPayload(scope, "CreateJournal", payload)
	require.NoError(t, err)
	c, err := services.HashPayload(scope, "PostJournal", payload)
	require.NoError(t, err)

	otherCompany := scope
	otherCompany.CompanyID = "co_2"
	d, err := services.HashPayload(otherCompany, "CreateJournal", payload)
	require.NoError(t, err)
	otherActor := scope
	otherActor.Actor = "v"
	e, err := services.HashPayload(otherActor, "CreateJournal", payload)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.NotEqual(t, a, e)
	assert.Len(t, a, 64)

	_, err = services.HashPayload(scope, "x", make(chan int))
	assert.Error(t, err)
}

// countingRepo counts Begin calls to show duplicates wait instead of re-running.
type countingRepo struct {
	*memory.IdempotencyRepository
	mu    sync.Mutex
	fresh int
}

func (r *countingRepo) Begin(ctx context.Context, claim domain.IdempotencyClaim) (domain.BeginResult, error) {
	res, err := r.IdempotencyRepository.Begin(ctx, claim)
	if err == nil && res.Outcome == domain.BeginFresh {
		r.mu.Lock()
		r.fresh++
		r.mu.Unlock()
	}
	return res, err
}

func TestAwaitReturnsFirstCallersResult(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{IdempotencyRepository: memory.NewIdempotencyRepository()}
	svc := services.NewIdempotencyService(repo, services.IdempotencyConfig{PollInterval: time.Millisecond}, services.BaseService{})
	scope := domain.Scope{TenantID: "tnt_1", Actor: "u", Role: domain.RoleMember}

	first, err := svc.Begin(ctx, scope, "k", "h")
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = svc.Complete(ctx, scope, "k", first.Token, "done")
	}()

	res, err := svc.Await(ctx, scope, "k", "h")
	require.NoError(t, err)
	assert.Equal(t, domain.BeginCompleted, res.Outcome)
	assert.Equal(t, 1, repo.fresh)
	assert.False(t, errors.Is(err, apperrors.ErrUnavailable))
}
