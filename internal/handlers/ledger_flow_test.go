package handlers_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/core/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/handlers"
	"github.com/SscSPs/ledger_integrity_core/internal/middleware"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/config"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/metrics"
	"github.com/SscSPs/ledger_integrity_core/internal/repositories/memory"
)

type flowClient struct {
	t      *testing.T
	router *gin.Engine
}

func newFlowClient(t *testing.T) *flowClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecret:              testSecret,
		JWTIssuer:              testIssuer,
		IsProduction:           true,
		IdempotencyWaitTimeout: time.Second,
		TxMaxRetries:           2,
		TxRetryBaseDelay:       time.Millisecond,
		TxRetryMaxDelay:        2 * time.Millisecond,
	}
	m := metrics.New(prometheus.NewRegistry())
	container := services.NewServiceContainer(cfg, memory.New().Provider(), m)

	lim, err := middleware.NewLimiter("1000-M")
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	handlers.RegisterRoutes(r, cfg, container, lim, m)
	return &flowClient{t: t, router: r}
}

func (f *flowClient) token(claims middleware.LedgerClaims) string {
	claims.Issuer = testIssuer
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(f.t, err)
	return signed
}

func (f *flowClient) call(method, url, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		RequestID string `json:"requestID"`
		Data      T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apperrors.Code {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Code
}

func TestLedgerFlow(t *testing.T) {
	f := newFlowClient(t)

	system := f.token(middleware.LedgerClaims{System: true, RegisteredClaims: jwt.RegisteredClaims{Subject: "provisioner"}})
	w := f.call(http.MethodPost, "/api/v1/tenants", system, dto.CreateTenantRequest{
		Name: "Acme", Slug: "acme", AdminUserID: "usr_admin",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tenant := data[domain.Tenant](t, w)

	tenantAdmin := f.token(middleware.LedgerClaims{TenantID: tenant.TenantID, RegisteredClaims: jwt.RegisteredClaims{Subject: "usr_admin"}})
	w = f.call(http.MethodPost, "/api/v1/companies", tenantAdmin, dto.CreateCompanyRequest{
		Code: "US", Name: "Acme US", BaseCurrency: "USD",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	company := data[domain.Company](t, w)

	admin := f.token(middleware.LedgerClaims{
		TenantID:         tenant.TenantID,
		CompanyID:        company.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "usr_admin"},
	})

	w = f.call(http.MethodPost, "/api/v1/accounts", admin, dto.CreateAccountRequest{Code: "1000", Name: "Cash", AccountType: domain.Asset}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cash := data[dto.AccountResponse](t, w)

	w = f.call(http.MethodPost, "/api/v1/accounts", admin, dto.CreateAccountRequest{Code: "4000", Name: "Sales", AccountType: domain.Revenue}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sales := data[dto.AccountResponse](t, w)

	w = f.call(http.MethodPost, "/api/v1/accounts", admin, dto.CreateAccountRequest{Code: "1000", Name: "Cash again", AccountType: domain.Asset}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeDuplicateCode, errorCode(t, w))

	draft := dto.CreateJournalRequest{
		CurrencyCode: "USD",
		Description:  "cash sale",
		Lines: []dto.JournalLineInput{
			{AccountID: cash.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: sales.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}
	idem := map[string]string{handlers.IdempotencyHeader: "sale-1"}
	w = f.call(http.MethodPost, "/api/v1/journals", admin, draft, idem)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	journal := data[dto.JournalResponse](t, w)
	assert.Equal(t, domain.Draft, journal.Status)

	// the same key and payload replays the first result
	w = f.call(http.MethodPost, "/api/v1/journals", admin, draft, idem)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, journal.JournalID, data[dto.JournalResponse](t, w).JournalID)

	// the same key with another payload is refused
	other := draft
	other.Description = "different"
	w = f.call(http.MethodPost, "/api/v1/journals", admin, other, idem)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeIdempotencyConflict, errorCode(t, w))

	w = f.call(http.MethodPost, "/api/v1/journals/"+journal.JournalID+"/post", admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	posted := data[dto.JournalResponse](t, w)
	assert.Equal(t, domain.Posted, posted.Status)
	assert.Equal(t, int64(1), posted.JournalNumber)

	desc := "rewrite history"
	w = f.call(http.MethodPatch, "/api/v1/journals/"+journal.JournalID, admin, dto.UpdateJournalRequest{Description: &desc}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeImmutableJournal, errorCode(t, w))

	w = f.call(http.MethodPost, "/api/v1/accounts/"+cash.AccountID+"/deactivate", admin, nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeReferencedEntity, errorCode(t, w))

	w = f.call(http.MethodGet, "/api/v1/audit?entityType=JOURNAL&entityID="+journal.JournalID, admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := data[dto.ListAuditEntriesResponse](t, w)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, domain.ActionPost, page.Entries[0].Action)
	assert.Equal(t, domain.ActionCreate, page.Entries[1].Action)
	assert.NotEmpty(t, page.Entries[0].RequestID)
}

func TestLedgerFlow_TenantIsolation(t *testing.T) {
	f := newFlowClient(t)
	system := f.token(middleware.LedgerClaims{System: true, RegisteredClaims: jwt.RegisteredClaims{Subject: "provisioner"}})

	provision := func(slug, admin string) (string, string) {
		w := f.call(http.MethodPost, "/api/v1/tenants", system, dto.CreateTenantRequest{Name: slug, Slug: slug, AdminUserID: admin}, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		tenant := data[domain.Tenant](t, w)
		tok := f.token(middleware.LedgerClaims{TenantID: tenant.TenantID, RegisteredClaims: jwt.RegisteredClaims{Subject: admin}})
		w = f.call(http.MethodPost, "/api/v1/companies", tok, dto.CreateCompanyRequest{Code: "HQ", Name: slug + " HQ", BaseCurrency: "EUR"}, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return tenant.TenantID, data[domain.Company](t, w).CompanyID
	}
	tenantA, companyA := provision("alpha", "usr_a")
	tenantB, _ := provision("beta", "usr_b")

	tokA := f.token(middleware.LedgerClaims{TenantID: tenantA, CompanyID: companyA, RegisteredClaims: jwt.RegisteredClaims{Subject: "usr_a"}})
	w := f.call(http.MethodPost, "/api/v1/accounts", tokA, dto.CreateAccountRequest{Code: "1000", Name: "Bank", AccountType: domain.Asset}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	account := data[dto.AccountResponse](t, w)

	// a member of B cannot read A's account
	tokB := f.token(middleware.LedgerClaims{TenantID: tenantB, RegisteredClaims: jwt.RegisteredClaims{Subject: "usr_b"}})
	w = f.call(http.MethodGet, "/api/v1/accounts/"+account.AccountID, tokB, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// nor can B's admin claim A's tenant or company
	forged := f.token(middleware.LedgerClaims{TenantID: tenantA, RegisteredClaims: jwt.RegisteredClaims{Subject: "usr_b"}})
	w = f.call(http.MethodGet, "/api/v1/accounts", forged, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.call(http.MethodGet, "/api/v1/accounts", tokB, nil, map[string]string{middleware.CompanyHeader: companyA})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
