package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/kayapalat/kayapalat-backend/internal/api/middleware"
	"github.com/kayapalat/kayapalat-backend/internal/service"
	"github.com/kayapalat/kayapalat-backend/internal/types"
)

// Register mounts the REST API under api. Everything except /auth requires
// a bearer token.
func (h *Handlers) Register(api *gin.RouterGroup, authService service.AuthService) {
	// ============================================
	// Public routes (no auth required)
	// ============================================
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	// ============================================
	// Protected routes (require auth middleware)
	// ============================================
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		users := protected.Group("/users")
		{
			users.GET("/me", h.User.GetCurrentUser)
			users.GET("", middleware.RequireRole(types.RoleSuperAdmin), h.User.List)
			users.POST("", middleware.RequireRole(types.RoleSuperAdmin), h.User.Create)
		}

		leads := protected.Group("/leads")
		{
			leads.GET("", h.Lead.List)
			leads.POST("", h.Lead.Create)
			leads.GET("/summary", h.Lead.Summary)
			leads.GET("/export", h.Lead.Export)
			leads.GET("/:appointmentId", h.Lead.Get)
			leads.PATCH("/:appointmentId", h.Lead.Update)

			// Remarks
			leads.GET("/:appointmentId/remarks", h.Remark.List)
			leads.POST("/:appointmentId/remarks", h.Remark.Append)
		}

		agents := protected.Group("/agents")
		{
			agents.GET("", h.Agent.List)
			agents.POST("", h.Agent.Create)
			agents.GET("/:id", h.Agent.Get)
			agents.PUT("/:id", h.Agent.Update)
			agents.GET("/:id/bank-details", h.Agent.GetBankDetails)
			agents.PUT("/:id/bank-details", h.Agent.UpdateBankDetails)
			agents.GET("/:id/commission", h.Agent.Commission)
		}
	}
}
