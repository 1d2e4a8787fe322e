package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/kayapalat/kayapalat-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Agent  *AgentHandler
	Lead   *LeadHandler
	Remark *RemarkHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:   &AuthHandler{authService: services.Auth},
		User:   &UserHandler{userService: services.User},
		Agent:  &AgentHandler{agentService: services.Agent},
		Lead:   &LeadHandler{leadService: services.Lead, permission: services.Permission},
		Remark: &RemarkHandler{remarkService: services.Remark},
	}
}

// ============================================
// Error mapping
// ============================================

func logAPIError(c *gin.Context, action string, err error, fields map[string]interface{}) {
	log.Printf(
		"[API_ERROR] action=%s method=%s path=%s userID=%v fields=%v err=%v",
		action,
		c.Request.Method,
		c.FullPath(),
		c.GetString("userID"),
		fields,
		err,
	)
}

func handleServiceError(c *gin.Context, err error) {
	var verr *pipeline.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Error(), "field": verr.Field})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid email or password"})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Resource not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "record changed, please refresh"})
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "User already exists"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid input"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed, try again"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}
