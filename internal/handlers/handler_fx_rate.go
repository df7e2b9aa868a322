package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/middleware"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/metrics"
)

// fxRateHandler handles HTTP requests for the FX rate timeline.
type fxRateHandler struct {
	baseHandler
	fxRateService portssvc.FxRateSvcFacade
}

// registerFxRateRoutes registers routes related to FX rates.
func registerFxRateRoutes(rg *gin.RouterGroup, fxRateService portssvc.FxRateSvcFacade, m *metrics.Metrics) {
	h := &fxRateHandler{baseHandler: baseHandler{metrics: m}, fxRateService: fxRateService}

	rates := rg.Group("/fx-rates")
	{
		rates.POST("", h.addRate)
		rates.GET("", h.listRates)
		rates.GET("/at", h.rateAt)
	}
}

// addRate godoc
// @Summary Add an FX rate
// @Description Adds a rate valid on [validFrom, validTo). Intervals of one pair never overlap.
// @Tags fx-rates
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   rate body dto.AddFxRateRequest true "Rate details"
// @Success 201 {object} dto.Envelope{data=domain.FxRate}
// @Failure 409 {object} dto.ErrorResponse "Overlapping interval"
// @Failure 422 {object} dto.ErrorResponse "Validation error"
// @Security BearerAuth
// @Router /fx-rates [post]
func (h *fxRateHandler) addRate(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.AddFxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	req.IdempotencyKey = idempotencyKey(c)

	rate, err := h.fxRateService.AddRate(c.Request.Context(), scope, req)
	if err != nil {
		h.renderError(c, err, "Failed to add FX rate")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("FX rate added",
		slog.String("rate_id", rate.RateID), slog.String("pair", rate.BaseCurrency+"/"+rate.QuoteCurrency))
	h.respond(c, http.StatusCreated, scope, rate)
}

// rateAt godoc
// @Summary Get the rate valid at an instant
// @Tags fx-rates
// @Produce  json
// @Param   base query string true "Base currency"
// @Param   quote query string true "Quote currency"
// @Param   at query string false "RFC 3339 instant, defaults to now"
// @Success 200 {object} dto.Envelope{data=domain.FxRate}
// @Failure 404 {object} dto.ErrorResponse "No rate found"
// @Security BearerAuth
// @Router /fx-rates/at [get]
func (h *fxRateHandler) rateAt(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q dto.RateAtQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	if q.At.IsZero() {
		q.At = time.Now().UTC()
	}

	rate, err := h.fxRateService.RateAt(c.Request.Context(), scope, q.Base, q.Quote, q.At)
	if err != nil {
		h.renderError(c, err, "Failed to look up FX rate")
		return
	}
	h.respond(c, http.StatusOK, scope, rate)
}

// listRates godoc
// @Summary List the timeline of a currency pair
// @Tags fx-rates
// @Produce  json
// @Param   base query string true "Base currency"
// @Param   quote query string true "Quote currency"
// @Success 200 {object} dto.Envelope{data=[]domain.FxRate}
// @Security BearerAuth
// @Router /fx-rates [get]
func (h *fxRateHandler) listRates(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q dto.ListFxRatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	rates, err := h.fxRateService.ListRates(c.Request.Context(), scope, q.Base, q.Quote)
	if err != nil {
		h.renderError(c, err, "Failed to list FX rates")
		return
	}
	h.respond(c, http.StatusOK, scope, rates)
}
