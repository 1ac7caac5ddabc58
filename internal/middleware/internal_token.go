package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"tourrental/internal/pkg/logger"
	"tourrental/internal/pkg/response"
)

// InternalTokenAuth protects service-to-service endpoints (external schedulers) with a
// static bearer token. An empty allowlist accepts any client IP.
func InternalTokenAuth(token string, allowedIPs []string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			logAuthFailure(c, log, http.StatusForbidden, "disabled")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Internal endpoints are disabled")
			c.Abort()
			return
		}

		if len(allowedIPs) > 0 && !slices.Contains(allowedIPs, c.ClientIP()) {
			logAuthFailure(c, log, http.StatusForbidden, "ip_not_allowed")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "IP not allowed")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logAuthFailure(c, log, http.StatusUnauthorized, "missing_auth")
			response.Error(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			logAuthFailure(c, log, http.StatusUnauthorized, "invalid_auth_format")
			response.Error(c, http.StatusUnauthorized, "AUTH_INVALID", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(token)) != 1 {
			logAuthFailure(c, log, http.StatusForbidden, "invalid_token")
			response.Error(c, http.StatusForbidden, "AUTH_INVALID", "Invalid internal token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func logAuthFailure(c *gin.Context, log *logger.Logger, status int, reason string) {
	requestID := c.GetHeader("X-Request-ID")
	log.Warn("internal auth rejected",
		"status", status,
		"request_id", requestID,
		"client_ip", c.ClientIP(),
		"reason", reason,
	)
}
