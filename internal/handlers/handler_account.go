package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/middleware"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/metrics"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	baseHandler
	accountService portssvc.AccountSvcFacade
}

func newAccountHandler(as portssvc.AccountSvcFacade, m *metrics.Metrics) *accountHandler {
	return &accountHandler{baseHandler: baseHandler{metrics: m}, accountService: as}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, m *metrics.Metrics) {
	h := newAccountHandler(accountService, m)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:id", h.getAccount)
		accounts.DELETE("/:id", h.deleteAccount)
		accounts.POST("/:id/deactivate", h.deactivateAccount)
		accounts.PUT("/:id/parent", h.moveAccount)
	}
}

// createAccount godoc
// @Summary Create a new account
// @Description Creates an account in the chart of accounts of the scoped company
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.Envelope{data=dto.AccountResponse}
// @Failure 422 {object} dto.ErrorResponse "Validation error"
// @Failure 403 {object} dto.ErrorResponse "Scope violation"
// @Failure 409 {object} dto.ErrorResponse "Duplicate code or idempotency conflict"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	req.IdempotencyKey = idempotencyKey(c)

	logger.Info("Received request to create account", slog.String("code", req.Code), slog.String("account_type", string(req.AccountType)))
	account, err := h.accountService.CreateAccount(c.Request.Context(), scope, req)
	if err != nil {
		h.renderError(c, err, "Failed to create account")
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID))
	h.respond(c, http.StatusCreated, scope, dto.ToAccountResponse(account))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.Envelope{data=dto.AccountResponse}
// @Failure 403 {object} dto.ErrorResponse "Scope violation"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	account, err := h.accountService.GetAccount(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		h.renderError(c, err, "Failed to get account")
		return
	}
	h.respond(c, http.StatusOK, scope, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List accounts
// @Description Lists the chart of accounts of the scoped company ordered by code
// @Tags accounts
// @Produce  json
// @Param   limit query int false "Page size"
// @Param   offset query int false "Offset"
// @Success 200 {object} dto.Envelope{data=[]dto.AccountResponse}
// @Failure 422 {object} dto.ErrorResponse "Invalid query"
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.badRequest(c, err)
		return
	}
	accounts, err := h.accountService.ListAccounts(c.Request.Context(), scope, params)
	if err != nil {
		h.renderError(c, err, "Failed to list accounts")
		return
	}
	h.respond(c, http.StatusOK, scope, dto.ToListAccountResponse(accounts))
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Deactivation is refused while any journal line references the account
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Success 200 {object} dto.Envelope{data=dto.AccountResponse}
// @Failure 409 {object} dto.ErrorResponse "Account is referenced"
// @Security BearerAuth
// @Router /accounts/{id}/deactivate [post]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	req := dto.DeactivateAccountRequest{IdempotencyKey: idempotencyKey(c)}
	account, err := h.accountService.DeactivateAccount(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "Failed to deactivate account")
		return
	}
	h.respond(c, http.StatusOK, scope, dto.ToAccountResponse(account))
}

// moveAccount godoc
// @Summary Move an account under a new parent
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   move body dto.MoveAccountRequest true "New parent; empty makes the account a root"
// @Success 200 {object} dto.Envelope{data=dto.AccountResponse}
// @Failure 409 {object} dto.ErrorResponse "Cycle detected"
// @Security BearerAuth
// @Router /accounts/{id}/parent [put]
func (h *accountHandler) moveAccount(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.MoveAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	req.IdempotencyKey = idempotencyKey(c)

	account, err := h.accountService.MoveAccount(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "Failed to move account")
		return
	}
	h.respond(c, http.StatusOK, scope, dto.ToAccountResponse(account))
}

// deleteAccount godoc
// @Summary Delete an account
// @Description Deletes an unreferenced leaf account
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Success 200 {object} dto.Envelope{data=dto.AccountResponse}
// @Failure 409 {object} dto.ErrorResponse "Account is referenced"
// @Security BearerAuth
// @Router /accounts/{id} [delete]
func (h *accountHandler) deleteAccount(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	req := dto.DeleteAccountRequest{IdempotencyKey: idempotencyKey(c)}
	account, err := h.accountService.DeleteAccount(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "Failed to delete account")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Account deleted", slog.String("account_id", account.AccountID))
	h.respond(c, http.StatusOK, scope, dto.ToAccountResponse(account))
}
