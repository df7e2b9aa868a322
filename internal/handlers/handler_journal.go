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

// journalHandler handles HTTP requests for journals.
type journalHandler struct {
	baseHandler
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(js portssvc.JournalSvcFacade, m *metrics.Metrics) *journalHandler {
	return &journalHandler{baseHandler: baseHandler{metrics: m}, journalService: js}
}

// registerJournalRoutes registers the journal lifecycle routes.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade, m *metrics.Metrics) {
	h := newJournalHandler(journalService, m)

	journals := rg.Group("/journals")
	{
		journals.POST("", h.createJournal)
		journals.GET("", h.listJournals)
		journals.GET("/:id", h.getJournal)
		journals.PATCH("/:id", h.updateJournal)
		journals.DELETE("/:id", h.deleteJournal)
		journals.POST("/:id/post", h.postJournal)
		journals.POST("/:id/reverse", h.reverseJournal)
	}
}

// createJournal godoc
// @Summary Create a draft journal
// @Description Validates the lines and stores a DRAFT journal. Balance is checked on post.
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   journal body dto.CreateJournalRequest true "Journal and its lines"
// @Success 201 {object} dto.Envelope{data=dto.JournalResponse}
// @Failure 404 {object} dto.ErrorResponse "No FX rate found"
// @Failure 409 {object} dto.ErrorResponse "Idempotency conflict"
// @Failure 422 {object} dto.ErrorResponse "Invalid line or unknown account"
// @Security BearerAuth
// @Router /journals [post]
func (h *journalHandler) createJournal(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	req.IdempotencyKey = idempotencyKey(c)

	logger.Info("Received request to create journal", slog.Int("lines", len(req.Lines)), slog.String("currency", req.CurrencyCode))
	journal, err := h.journalService.CreateJournal(c.Request.Context(), scope, req)
	if err != nil {
		h.renderError(c, err, "Failed to create journal")
		return
	}

	logger.Info("Journal created", slog.String("journal_id", journal.JournalID))
	h.respond(c, http.StatusCreated, scope, dto.ToJournalResponse(journal))
}

// getJournal godoc
// @Summary Get a journal with its lines
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Success 200 {object} dto.Envelope{data=dto.JournalResponse}
// @Failure 404 {object} dto.ErrorResponse "Journal not found"
// @Security BearerAuth
// @Router /journals/{id} [get]
func (h *journalHandler) getJournal(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	journal, err := h.journalService.GetJournal(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		h.renderError(c, err, "Failed to get journal")
		return
	}
	h.respond(c, http.StatusOK, scope, dto.ToJournalResponse(journal))
}

// listJournals godoc
// @Summary List journals
// @Description Lists journal headers of the scoped company, newest first
// @Tags journals
// @Produce  json
// @Param   status query string false "DRAFT or POSTED"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.Envelope{data=dto.ListJournalsResponse}
// @Failure 422 {object} dto.ErrorResponse "Invalid query"
// @Security BearerAuth
// @Router /journals [get]
func (h *journalHandler) listJournals(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var params dto.ListJournalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.badRequest(c, err)
		return
	}
	journals, next, err := h.journalService.ListJournals(c.Request.Context(), scope, params)
	if err != nil {
		h.renderError(c, err, "Failed to list journals")
		return
	}
	h.respond(c, http.StatusOK, scope, dto.ListJournalsResponse{
		Journals:  dto.ToJournalResponses(journals),
		NextToken: next,
	})
}

// updateJournal godoc
// @Summary Amend a draft journal
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   id path string true "Journal ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   journal body dto.UpdateJournalRequest true "Fields to change"
// @Success 200 {object} dto.Envelope{data=dto.JournalResponse}
// @Failure 409 {object} dto.ErrorResponse "Journal is posted"
// @Security BearerAuth
// @Router /journals/{id} [patch]
func (h *journalHandler) updateJournal(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.UpdateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	req.IdempotencyKey = idempotencyKey(c)

	journal, err := h.journalService.UpdateJournal(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "Failed to update journal")
		return
	}
	h.respond(c, http.StatusOK, scope, dto.ToJournalResponse(journal))
}

// postJournal godoc
// @Summary Post a draft journal
// @Description Checks the balance, assigns the next journal number and makes the journal immutable
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Success 200 {object} dto.Envelope{data=dto.JournalResponse}
// @Failure 409 {object} dto.ErrorResponse "Already posted"
// @Failure 422 {object} dto.ErrorResponse "Unbalanced journal"
// @Security BearerAuth
// @Router /journals/{id}/post [post]
func (h *journalHandler) postJournal(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	req := dto.PostJournalRequest{IdempotencyKey: idempotencyKey(c)}
	journal, err := h.journalService.PostJournal(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "Failed to post journal")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Journal posted",
		slog.String("journal_id", journal.JournalID), slog.Int64("journal_number", journal.JournalNumber))
	h.respond(c, http.StatusOK, scope, dto.ToJournalResponse(journal))
}

// deleteJournal godoc
// @Summary Delete a draft journal
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Success 200 {object} dto.Envelope{data=dto.JournalResponse}
// @Failure 409 {object} dto.ErrorResponse "Journal is posted"
// @Security BearerAuth
// @Router /journals/{id} [delete]
func (h *journalHandler) deleteJournal(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	req := dto.DeleteJournalRequest{IdempotencyKey: idempotencyKey(c)}
	journal, err := h.journalService.DeleteJournal(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "Failed to delete journal")
		return
	}
	h.respond(c, http.StatusOK, scope, dto.ToJournalResponse(journal))
}

// reverseJournal godoc
// @Summary Reverse a posted journal
// @Description Creates a draft journal with debits and credits swapped
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   id path string true "Journal ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   reversal body dto.ReverseJournalRequest false "Reversal options"
// @Success 201 {object} dto.Envelope{data=dto.JournalResponse}
// @Failure 409 {object} dto.ErrorResponse "Journal is not posted or already reversed"
// @Security BearerAuth
// @Router /journals/{id}/reverse [post]
func (h *journalHandler) reverseJournal(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.ReverseJournalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}
	req.IdempotencyKey = idempotencyKey(c)

	journal, err := h.journalService.ReverseJournal(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "Failed to reverse journal")
		return
	}
	h.respond(c, http.StatusCreated, scope, dto.ToJournalResponse(journal))
}
