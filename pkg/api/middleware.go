package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestIDMiddleware assigns each request an ID, honoring one supplied by
// the caller, and echoes it on the response.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// loggingMiddleware logs one line per request.
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", c.GetString(requestIDKey))
	}
}

// recoveryMiddleware converts panics into 500 responses. A live request
// must never take the process down.
func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic in HTTP handler",
					"path", c.Request.URL.Path,
					"panic", r,
					"request_id", c.GetString(requestIDKey))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					ErrorResponse{Error: "internal error"})
			}
		}()
		c.Next()
	}
}
