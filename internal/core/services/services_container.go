package services

import (
	portsrepo "github.com/SscSPs/ledger_integrity_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/config"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, m *metrics.Metrics) *portssvc.ServiceContainer {
	base := BaseService{
		Metrics: m,
		Retry: RetryConfig{
			MaxRetries: cfg.TxMaxRetries,
			BaseDelay:  cfg.TxRetryBaseDelay,
			MaxDelay:   cfg.TxRetryMaxDelay,
		},
	}
	idemCfg := IdempotencyConfig{
		ClaimTTL:    cfg.IdempotencyClaimTTL,
		ResultTTL:   cfg.IdempotencyResultTTL,
		WaitTimeout: cfg.IdempotencyWaitTimeout,
	}
	return NewServiceContainerWithBase(repos, base, idemCfg)
}

// NewServiceContainerWithBase wires the services around a prepared BaseService.
// Tests use it to inject a clock.
func NewServiceContainerWithBase(repos portsrepo.RepositoryProvider, base BaseService, idemCfg IdempotencyConfig) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Audit and idempotency first since every command depends on them
	audit := NewAuditService(repos.UnitOfWork, base)
	container.Audit = audit
	if repos.IdempotencyRepo != nil {
		container.Idempotency = NewIdempotencyService(repos.IdempotencyRepo, idemCfg, base)
	}

	container.Scope = NewScopeService(repos.UnitOfWork, base)
	container.Tenant = NewTenantService(repos.UnitOfWork, audit, base)
	container.Account = NewAccountService(repos.UnitOfWork, audit, container.Idempotency, base)
	container.FxRate = NewFxRateService(repos.UnitOfWork, audit, container.Idempotency, base)
	container.Journal = NewJournalService(repos.UnitOfWork, audit, container.Idempotency, base)

	return container
}
