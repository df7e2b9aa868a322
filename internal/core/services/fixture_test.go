package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/core/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/repositories/memory"
)

const adminUser = "usr_admin"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ledgerSuite provisions one tenant with a USD company and two accounts
// on a fresh in-memory store before every test.
type ledgerSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	clock *testClock
	base  services.BaseService
	svc   *portssvc.ServiceContainer

	tenant      *domain.Tenant
	company     *domain.Company
	tenantScope domain.Scope
	scope       domain.Scope
	cash        *domain.Account
	revenue     *domain.Account
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.clock = newTestClock()
	s.base = services.BaseService{
		Clock: s.clock.Now,
		Retry: services.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}
	s.svc = s.newContainer(s.store.Provider())

	s.tenant, s.company, s.tenantScope, s.scope = s.provision("acme", adminUser, "USD")
	s.cash = s.createAccount(s.scope, "1000", "Cash", domain.Asset)
	s.revenue = s.createAccount(s.scope, "4000", "Revenue", domain.Revenue)
}

func (s *ledgerSuite) newContainer(provider portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	return services.NewServiceContainerWithBase(provider, s.base, services.IdempotencyConfig{
		WaitTimeout:  2 * time.Second,
		PollInterval: time.Millisecond,
	})
}

// provision creates a tenant administered by user plus one company, and
// returns the tenant-level and company-level scopes of that user.
func (s *ledgerSuite) provision(slug, user, baseCurrency string) (*domain.Tenant, *domain.Company, domain.Scope, domain.Scope) {
	tenant, err := s.svc.Tenant.CreateTenant(s.ctx, domain.SystemScope("", ""), dto.CreateTenantRequest{
		Name:        slug + " Inc",
		Slug:        slug,
		AdminUserID: user,
	})
	s.Require().NoError(err)

	tenantScope, err := s.svc.Scope.ResolveScope(s.ctx, domain.Claims{Subject: user, TenantID: tenant.TenantID})
	s.Require().NoError(err)

	company, err := s.svc.Tenant.CreateCompany(s.ctx, tenantScope, dto.CreateCompanyRequest{
		Code:         "MAIN",
		Name:         slug + " Main",
		BaseCurrency: baseCurrency,
	})
	s.Require().NoError(err)

	scope, err := s.svc.Scope.ResolveScope(s.ctx, domain.Claims{Subject: user, TenantID: tenant.TenantID, CompanyID: company.CompanyID})
	s.Require().NoError(err)
	return tenant, company, tenantScope, scope
}

func (s *ledgerSuite) createAccount(scope domain.Scope, code, name string, accountType domain.AccountType) *domain.Account {
	account, err := s.svc.Account.CreateAccount(s.ctx, scope, dto.CreateAccountRequest{
		Code:        code,
		Name:        name,
		AccountType: accountType,
	})
	s.Require().NoError(err)
	return account
}

func debit(accountID, amount string) dto.JournalLineInput {
	return dto.JournalLineInput{AccountID: accountID, Debit: decimal.RequireFromString(amount)}
}

func credit(accountID, amount string) dto.JournalLineInput {
	return dto.JournalLineInput{AccountID: accountID, Credit: decimal.RequireFromString(amount)}
}

func (s *ledgerSuite) journalRequest(lines ...dto.JournalLineInput) dto.CreateJournalRequest {
	return dto.CreateJournalRequest{
		JournalDate:  s.clock.Now(),
		Description:  "cash sale",
		CurrencyCode: "USD",
		Lines:        lines,
	}
}

func (s *ledgerSuite) createJournal(lines ...dto.JournalLineInput) *domain.Journal {
	journal, err := s.svc.Journal.CreateJournal(s.ctx, s.scope, s.journalRequest(lines...))
	s.Require().NoError(err)
	return journal
}

func (s *ledgerSuite) auditEntries(scope domain.Scope, entityID string) []domain.AuditLogEntry {
	resp, err := s.svc.Audit.ListAuditEntries(s.ctx, scope, dto.ListAuditEntriesParams{EntityID: entityID, Limit: 100})
	s.Require().NoError(err)
	return resp.Entries
}
