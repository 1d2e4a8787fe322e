package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kayapalat/kayapalat-backend/internal/api/middleware"
	"github.com/kayapalat/kayapalat-backend/internal/models"
	"github.com/kayapalat/kayapalat-backend/internal/service"
)

// ============================================
// Agent Handler
// ============================================

type AgentHandler struct {
	agentService service.AgentService
}

func (h *AgentHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	agents, err := h.agentService.List(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.AgentResponse, len(agents))
	for i, a := range agents {
		response[i] = models.NewAgentResponse(a, false)
	}

	c.JSON(http.StatusOK, gin.H{"agents": response, "total": len(response)})
}

func (h *AgentHandler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	agent, err := h.agentService.Create(c.Request.Context(), actor, service.AgentInput{
		Name:                     &req.Name,
		Phone:                    &req.Phone,
		Email:                    req.Email,
		DefaultCommissionPercent: req.DefaultCommissionPercent.StringPtr(),
	})
	if err != nil {
		logAPIError(c, "agent.create", err, map[string]interface{}{"name": req.Name})
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "agent": models.NewAgentResponse(agent, false)})
}

func (h *AgentHandler) Get(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	agent, err := h.agentService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"agent": models.NewAgentResponse(agent, false)})
}

func (h *AgentHandler) Update(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req models.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	agent, err := h.agentService.Update(c.Request.Context(), actor, id, service.AgentInput{
		Name:                     req.Name,
		Phone:                    req.Phone,
		Email:                    req.Email,
		DefaultCommissionPercent: req.DefaultCommissionPercent.StringPtr(),
	})
	if err != nil {
		logAPIError(c, "agent.update", err, map[string]interface{}{"agentId": id})
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "agent": models.NewAgentResponse(agent, false)})
}

// GetBankDetails returns payout details; the account number is masked for
// everyone but super admins.
func (h *AgentHandler) GetBankDetails(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	agent, err := h.agentService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bankDetails": models.NewBankDetailsResponse(agent.Bank)})
}

func (h *AgentHandler) UpdateBankDetails(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req models.BankDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	agent, err := h.agentService.UpdateBankDetails(c.Request.Context(), actor, id, req.ToBankDetails())
	if err != nil {
		logAPIError(c, "agent.bank", err, map[string]interface{}{"agentId": id})
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bankDetails": models.NewBankDetailsResponse(agent.Bank)})
}

func (h *AgentHandler) Commission(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	summary, err := h.agentService.Commission(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewCommissionResponse(summary))
}
