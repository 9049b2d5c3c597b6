package users

import (
	"codeberg.org/gatekeep/server/gatekeep/sessions"
	"codeberg.org/gatekeep/server/internal/auth"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, svc *sessions.Service, signer *auth.Signer) {
	users := rg.Group("/users")
	users.Use(auth.AuthMiddleware(signer)) // all user routes require authentication

	users.GET("/me", GetProfile(svc))
	users.PUT("/me", UpdateProfile(svc))
}
