package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/middleware"
)

func TestNewLimiterRejectsBadFormat(t *testing.T) {
	_, err := middleware.NewLimiter("lots")
	assert.Error(t, err)
}

func TestRateLimit_PerTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim, err := middleware.NewLimiter("2-M")
	require.NoError(t, err)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if tenant := c.GetHeader("X-Test-Tenant"); tenant != "" {
			ctx := middleware.WithScope(c.Request.Context(), domain.Scope{TenantID: tenant})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	r.Use(middleware.RateLimit(lim))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(tenant string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Test-Tenant", tenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("tnt_a"))
	assert.Equal(t, http.StatusNoContent, call("tnt_a"))
	assert.Equal(t, http.StatusTooManyRequests, call("tnt_a"))

	// another tenant has its own budget
	assert.Equal(t, http.StatusNoContent, call("tnt_b"))
}
