package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kayapalat/kayapalat-backend/internal/api/middleware"
	"github.com/kayapalat/kayapalat-backend/internal/models"
	"github.com/kayapalat/kayapalat-backend/internal/service"
)

// ============================================
// User Handler
// ============================================

type UserHandler struct {
	userService service.UserService
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewUserResponse(user))
}

func (h *UserHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	users, err := h.userService.List(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.UserResponse, len(users))
	for i, u := range users {
		response[i] = models.NewUserResponse(u)
	}

	c.JSON(http.StatusOK, gin.H{"users": response, "total": len(response)})
}

// Create adds a dashboard account. Super admins only.
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), actor, service.NewUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		AgentID:  req.AgentID,
	})
	if err != nil {
		logAPIError(c, "user.create", err, map[string]interface{}{"email": req.Email, "role": req.Role})
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": models.NewUserResponse(user)})
}
