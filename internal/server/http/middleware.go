package http

import (
	"time"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/dmitrijs2005/idkeeper/internal/logging"
	"github.com/dmitrijs2005/idkeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestID propagates X-Request-ID, generating one when absent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func accessLog(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", requestIDFrom(c),
		)
	}
}

func recovery(log logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error(c.Request.Context(), "panic in handler", "error", recovered, "request_id", requestIDFrom(c))
		c.AbortWithStatusJSON(500, errorResponse{Error: msgInternal})
	})
}

// authGate admits requests carrying a valid bearer token. Every failure
// gets the same 403 so callers cannot tell missing, malformed, forged and
// expired tokens apart; the audit log records which one it was.
func authGate(gate *auth.Gate, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)

		claims, err := gate.Authenticate(header)
		if err != nil {
			args := []any{
				"kind", auth.Kind(err),
				"request_id", requestIDFrom(c),
				"client_ip", c.ClientIP(),
				"path", c.Request.URL.Path,
			}
			if tok, terr := auth.BearerToken(header); terr == nil {
				args = append(args, "token", auth.Preview(tok))
			}
			log.Warn(c.Request.Context(), "auth rejected", args...)

			c.AbortWithStatusJSON(403, errorResponse{Error: msgForbidden})
			return
		}

		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}
