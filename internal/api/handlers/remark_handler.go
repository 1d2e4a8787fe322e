package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kayapalat/kayapalat-backend/internal/api/middleware"
	"github.com/kayapalat/kayapalat-backend/internal/models"
	"github.com/kayapalat/kayapalat-backend/internal/service"
)

// ============================================
// Remark Handler
// ============================================

type RemarkHandler struct {
	remarkService service.RemarkService
}

func (h *RemarkHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	remarks, err := h.remarkService.List(c.Request.Context(), actor, c.Param("appointmentId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"remarks": models.NewRemarkResponses(remarks)})
}

func (h *RemarkHandler) Append(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	appointmentID := c.Param("appointmentId")

	var req models.AppendRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	remark, err := h.remarkService.Append(c.Request.Context(), actor, appointmentID, req.Comment)
	if err != nil {
		logAPIError(c, "remark.append", err, map[string]interface{}{"appointmentId": appointmentID})
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "remark": models.NewRemarkResponse(remark)})
}
