package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kayapalat/kayapalat-backend/internal/api/middleware"
	"github.com/kayapalat/kayapalat-backend/internal/export"
	"github.com/kayapalat/kayapalat-backend/internal/models"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/service"
)

// ============================================
// Lead Handler
// ============================================

type LeadHandler struct {
	leadService service.LeadService
	permission  service.PermissionService
}

func filterFromQuery(c *gin.Context) (pipeline.Filter, error) {
	return pipeline.ParseFilter(
		c.Query("stage"),
		c.Query("propertyType"),
		c.Query("from"),
		c.Query("to"),
		c.Query("q"),
		c.Query("sort"),
	)
}

// List returns the caller's leads after filtering, searching and sorting.
func (h *LeadHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	filter, err := filterFromQuery(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	matches, err := h.leadService.Query(c.Request.Context(), actor, filter)
	if err != nil {
		logAPIError(c, "lead.list", err, map[string]interface{}{"filter": filter})
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.LeadListResponse{
		Projects: models.NewMatchResponses(matches),
		Total:    len(matches),
	})
}

func (h *LeadHandler) Summary(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	summary, err := h.leadService.Summary(c.Request.Context(), actor)
	if err != nil {
		logAPIError(c, "lead.summary", err, nil)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSummaryResponse(summary))
}

// Export streams the filtered lead list as an .xlsx workbook.
func (h *LeadHandler) Export(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	if !h.permission.CheckPermission(actor, service.EntityLead, service.ActionExport) {
		handleServiceError(c, service.ErrForbidden)
		return
	}

	filter, err := filterFromQuery(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	matches, err := h.leadService.Query(c.Request.Context(), actor, filter)
	if err != nil {
		logAPIError(c, "lead.export", err, nil)
		handleServiceError(c, err)
		return
	}

	leads := make([]*pipeline.Lead, len(matches))
	for i, m := range matches {
		leads[i] = m.Lead
	}

	now := time.Now()
	buf, err := export.LeadsWorkbook("Kayapalat Leads", leads, now)
	if err != nil {
		logAPIError(c, "lead.export", err, map[string]interface{}{"rows": len(leads)})
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("leads-%s.xlsx", now.Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *LeadHandler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draft := pipeline.Draft{
		AgentID:      strings.TrimSpace(req.AgentID),
		ClientName:   req.ClientName,
		ClientPhone:  req.ClientPhone,
		PropertyType: req.PropertyType,
		Location:     req.Location,
		ColdCallDate: req.ColdCallDate,
		ColdCallTime: req.ColdCallTime,
	}
	if req.ProjectValue != nil {
		draft.ProjectValue = string(*req.ProjectValue)
	}
	if req.CommissionPercent != nil {
		draft.CommissionPercent = string(*req.CommissionPercent)
	}

	lead, err := h.leadService.Create(c.Request.Context(), actor, draft)
	if err != nil {
		logAPIError(c, "lead.create", err, map[string]interface{}{"agentId": draft.AgentID})
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "project": models.NewLeadResponse(lead)})
}

func (h *LeadHandler) Get(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	lead, err := h.leadService.Get(c.Request.Context(), actor, c.Param("appointmentId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": models.NewLeadResponse(lead)})
}

// Update applies a partial edit. The expected revision comes from the body
// or, failing that, the If-Match header.
func (h *LeadHandler) Update(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	appointmentID := c.Param("appointmentId")

	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	revision := req.Revision
	if revision == nil {
		if header := c.GetHeader("If-Match"); header != "" {
			rev, err := parseRevision(header)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "If-Match must be a revision number", "field": "revision"})
				return
			}
			revision = &rev
		}
	}

	lead, changed, err := h.leadService.UpdateFields(c.Request.Context(), actor, appointmentID, req.ToPatch(), revision)
	if err != nil {
		logAPIError(c, "lead.update", err, map[string]interface{}{"appointmentId": appointmentID})
		handleServiceError(c, err)
		return
	}
	if changed == nil {
		changed = []string{}
	}

	c.Header("ETag", strconv.Quote(strconv.FormatInt(lead.Revision, 10)))
	c.JSON(http.StatusOK, models.UpdateLeadResponse{
		Success: true,
		Project: models.NewLeadResponse(lead),
		Changed: changed,
	})
}

// parseRevision accepts 7, "7" and W/"7".
func parseRevision(header string) (int64, error) {
	v := strings.TrimSpace(header)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	return strconv.ParseInt(v, 10, 64)
}
