package main

import (
	"time"

	"codeberg.org/gatekeep/server/api/rest/auth"
	"codeberg.org/gatekeep/server/api/rest/health"
	"codeberg.org/gatekeep/server/api/rest/users"
	apierrors "codeberg.org/gatekeep/server/internal/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware(server.config.FrontendURL))
	router.Use(RequestLogger())
	router.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "route")
	})

	// a typed nil pool must not reach the handler as a non-nil interface
	var pinger health.Pinger
	if server.db != nil {
		pinger = server.db
	}

	router.GET("/health", health.Handler(pinger))

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		auth.RegisterRoutes(v1, server.sessions, server.signer)
		users.RegisterRoutes(v1, server.sessions, server.signer)
	}
}

// allows the browser frontend to call the API with credentials
func CORSMiddleware(frontendURL string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
