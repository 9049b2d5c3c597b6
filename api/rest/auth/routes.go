package auth

import (
	"codeberg.org/gatekeep/server/gatekeep/sessions"
	"codeberg.org/gatekeep/server/internal/auth"
	"github.com/gin-gonic/gin"
)

// registers all authentication routes
func RegisterRoutes(router *gin.RouterGroup, svc *sessions.Service, signer *auth.Signer) {
	requireAuth := auth.AuthMiddleware(signer)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", RegisterHandler(svc))
		authGroup.POST("/login", LoginHandler(svc))
		authGroup.POST("/refresh", RefreshHandler(svc))
		authGroup.POST("/logout", requireAuth, LogoutHandler(svc))
		authGroup.POST("/logout-all", requireAuth, LogoutAllHandler(svc))
		authGroup.GET("/google", BeginAuthHandler(svc))
		authGroup.GET("/google/callback", CallbackHandler(svc))
		authGroup.GET("/me", requireAuth, GetCurrentUserHandler(svc))
	}
}
