package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/middleware"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/metrics"
)

// IdempotencyHeader carries the caller's idempotency key on commands.
const IdempotencyHeader = "Idempotency-Key"

// baseHandler holds what every handler needs to answer a request.
type baseHandler struct {
	metrics *metrics.Metrics
}

// scope returns the scope AuthMiddleware stored on the request. A missing
// scope means the route was registered outside the authenticated group.
func (h *baseHandler) scope(c *gin.Context) (domain.Scope, bool) {
	scope, ok := middleware.GetScopeFromCtx(c.Request.Context())
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Scope not found in context")
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
			Code:      apperrors.CodeUnauthenticated,
			Detail:    "Unauthorized",
			RequestID: middleware.GetRequestIDFromCtx(c.Request.Context()),
		})
		return domain.Scope{}, false
	}
	return scope, true
}

// respond writes data inside the standard envelope.
func (h *baseHandler) respond(c *gin.Context, status int, scope domain.Scope, data any) {
	c.JSON(status, dto.Envelope{
		RequestID: middleware.GetRequestIDFromCtx(c.Request.Context()),
		Scope:     scope,
		Data:      data,
	})
}

// renderError maps err to its status and stable code. Internal errors are
// logged with their cause and rendered without it.
func (h *baseHandler) renderError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := apperrors.CodeOf(err)
	status := apperrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("code", string(code)), slog.String("error", err.Error()))
	} else {
		logger.Warn(msg, slog.String("code", string(code)), slog.String("error", err.Error()))
	}
	h.metrics.CommandError(string(code))
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Code:      code,
		Detail:    apperrors.DetailOf(err),
		RequestID: middleware.GetRequestIDFromCtx(c.Request.Context()),
	})
}

// badRequest renders a binding failure as a VALIDATION error.
func (h *baseHandler) badRequest(c *gin.Context, err error) {
	h.renderError(c, apperrors.Wrap(apperrors.CodeValidation, "Invalid request format: "+err.Error(), err), "Failed to bind request")
}

func idempotencyKey(c *gin.Context) string {
	return c.GetHeader(IdempotencyHeader)
}
