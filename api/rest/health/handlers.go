package health

import (
	"context"
	"net/http"
	"time"

	"codeberg.org/gatekeep/server/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	serviceName = "gatekeep"
	version     = "1.0.0"
	pingTimeout = 2 * time.Second
)

// returns the server health status. db may be nil when running without a database.
func Handler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := Response{
			Status:  "healthy",
			Service: serviceName,
			Version: version,
		}

		if db == nil {
			c.JSON(http.StatusOK, resp)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.FromContext(c.Request.Context()).Error("health check database ping failed", "error", err)

			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)

			return
		}

		resp.Database = "ok"
		c.JSON(http.StatusOK, resp)
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
