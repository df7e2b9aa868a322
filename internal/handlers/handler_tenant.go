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

// tenantHandler handles tenant provisioning, companies and memberships.
type tenantHandler struct {
	baseHandler
	tenantService portssvc.TenantSvcFacade
}

// registerTenantRoutes registers provisioning routes.
func registerTenantRoutes(rg *gin.RouterGroup, tenantService portssvc.TenantSvcFacade, m *metrics.Metrics) {
	h := &tenantHandler{baseHandler: baseHandler{metrics: m}, tenantService: tenantService}

	rg.POST("/tenants", h.createTenant)
	rg.POST("/companies", h.createCompany)
	rg.GET("/companies", h.listCompanies)
	rg.POST("/members", h.addMember)
}

// createTenant godoc
// @Summary Provision a tenant
// @Description Requires a system token. The admin user becomes the first ADMIN member.
// @Tags tenants
// @Accept  json
// @Produce  json
// @Param   tenant body dto.CreateTenantRequest true "Tenant details"
// @Success 201 {object} dto.Envelope{data=domain.Tenant}
// @Failure 403 {object} dto.ErrorResponse "Not a system scope"
// @Failure 409 {object} dto.ErrorResponse "Slug already taken"
// @Security BearerAuth
// @Router /tenants [post]
func (h *tenantHandler) createTenant(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), scope, req)
	if err != nil {
		h.renderError(c, err, "Failed to create tenant")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Tenant provisioned", slog.String("tenant_id", tenant.TenantID))
	h.respond(c, http.StatusCreated, scope, tenant)
}

// createCompany godoc
// @Summary Add a company to the tenant
// @Tags tenants
// @Accept  json
// @Produce  json
// @Param   company body dto.CreateCompanyRequest true "Company details"
// @Success 201 {object} dto.Envelope{data=domain.Company}
// @Failure 403 {object} dto.ErrorResponse "Requires ADMIN"
// @Failure 409 {object} dto.ErrorResponse "Duplicate code"
// @Security BearerAuth
// @Router /companies [post]
func (h *tenantHandler) createCompany(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	company, err := h.tenantService.CreateCompany(c.Request.Context(), scope, req)
	if err != nil {
		h.renderError(c, err, "Failed to create company")
		return
	}
	h.respond(c, http.StatusCreated, scope, company)
}

// listCompanies godoc
// @Summary List the companies of the tenant
// @Tags tenants
// @Produce  json
// @Success 200 {object} dto.Envelope{data=[]domain.Company}
// @Security BearerAuth
// @Router /companies [get]
func (h *tenantHandler) listCompanies(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	companies, err := h.tenantService.ListCompanies(c.Request.Context(), scope)
	if err != nil {
		h.renderError(c, err, "Failed to list companies")
		return
	}
	h.respond(c, http.StatusOK, scope, companies)
}

// addMember godoc
// @Summary Grant a user a role in the tenant
// @Tags tenants
// @Accept  json
// @Produce  json
// @Param   member body dto.AddMemberRequest true "Membership"
// @Success 200 {object} dto.Envelope{data=domain.Membership}
// @Failure 403 {object} dto.ErrorResponse "Requires ADMIN"
// @Security BearerAuth
// @Router /members [post]
func (h *tenantHandler) addMember(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	membership, err := h.tenantService.AddMember(c.Request.Context(), scope, req)
	if err != nil {
		h.renderError(c, err, "Failed to add member")
		return
	}
	h.respond(c, http.StatusOK, scope, membership)
}
