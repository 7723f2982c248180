package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resumind/internal/shared/server/respond"
	"resumind/internal/shared/telemetry"
)

// Recovery turns a panic into a 500 with the generic retry message. A panic
// after the response started (an SSE stream) can only be logged.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"user_id":    UserIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Something went wrong. Try again.", nil)
		}()
		c.Next()
	}
}
