// Package memory is an in-process implementation of the repository ports.
// Units of work are serialised under one mutex and run against a copy of
// the state that is swapped in only on success.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
)

type state struct {
	tenants     map[string]domain.Tenant
	companies   map[string]domain.Company
	memberships map[string]domain.Membership // userID|tenantID
	accounts    map[string]domain.Account
	journals    map[string]domain.Journal
	lines       map[string][]domain.JournalLine // by journal id
	rates       map[string]domain.FxRate
	audit       []domain.AuditLogEntry
	sequences   map[string]int64 // tenantID|companyID
}

func newState() *state {
	return &state{
		tenants:     make(map[string]domain.Tenant),
		companies:   make(map[string]domain.Company),
		memberships: make(map[string]domain.Membership),
		accounts:    make(map[string]domain.Account),
		journals:    make(map[string]domain.Journal),
		lines:       make(map[string][]domain.JournalLine),
		rates:       make(map[string]domain.FxRate),
		sequences:   make(map[string]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		tenants:     maps.Clone(s.tenants),
		companies:   maps.Clone(s.companies),
		memberships: maps.Clone(s.memberships),
		accounts:    maps.Clone(s.accounts),
		journals:    maps.Clone(s.journals),
		lines:       make(map[string][]domain.JournalLine, len(s.lines)),
		rates:       maps.Clone(s.rates),
		audit:       slices.Clone(s.audit),
		sequences:   maps.Clone(s.sequences),
	}
	for id, ls := range s.lines {
		c.lines[id] = slices.Clone(ls)
	}
	return c
}

// Store is the in-memory backend.
type Store struct {
	mu sync.RWMutex
	st *state

	idempotency *IdempotencyRepository
}

var _ portsrepo.UnitOfWork = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{st: newState(), idempotency: NewIdempotencyRepository()}
}

// Provider returns the repository provider backed by this store.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UnitOfWork:      s,
		IdempotencyRepo: s.idempotency,
	}
}

// WithinTx runs fn against a private copy of the state; the copy replaces
// the live state only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &repos{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Read runs fn against the live state under a shared lock.
func (s *Store) Read(ctx context.Context, fn func(ctx context.Context, repos portsrepo.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &repos{st: s.st})
}

type repos struct {
	st *state
}

func (r *repos) Tenants() portsrepo.TenantRepositoryFacade   { return &tenantRepository{st: r.st} }
func (r *repos) Accounts() portsrepo.AccountRepositoryFacade { return &accountRepository{st: r.st} }
func (r *repos) Journals() portsrepo.JournalRepositoryFacade { return &journalRepository{st: r.st} }
func (r *repos) FxRates() portsrepo.FxRateRepositoryFacade   { return &fxRateRepository{st: r.st} }
func (r *repos) Audit() portsrepo.AuditRepositoryFacade      { return &auditRepository{st: r.st} }
