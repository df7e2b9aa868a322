package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/metrics"
)

type auditHandler struct {
	baseHandler
	auditService portssvc.AuditReaderSvc
}

func registerAuditRoutes(rg *gin.RouterGroup, auditService portssvc.AuditReaderSvc, m *metrics.Metrics) {
	h := &auditHandler{baseHandler: baseHandler{metrics: m}, auditService: auditService}
	rg.GET("/audit", h.listAuditEntries)
}

// listAuditEntries godoc
// @Summary Read the audit trail
// @Description Lists audit entries of the scope, newest first, optionally for one entity
// @Tags audit
// @Produce  json
// @Param   entityType query string false "Entity type"
// @Param   entityID query string false "Entity ID"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.Envelope{data=dto.ListAuditEntriesResponse}
// @Failure 403 {object} dto.ErrorResponse "Scope violation"
// @Security BearerAuth
// @Router /audit [get]
func (h *auditHandler) listAuditEntries(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var params dto.ListAuditEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.badRequest(c, err)
		return
	}
	page, err := h.auditService.ListAuditEntries(c.Request.Context(), scope, params)
	if err != nil {
		h.renderError(c, err, "Failed to list audit entries")
		return
	}
	h.respond(c, http.StatusOK, scope, page)
}
