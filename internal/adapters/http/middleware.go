package http

import (
	"net/http"
	"strings"

	"github.com/dkeye/Coordinator/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ServiceAuthMiddleware requires a valid service bearer token and puts the
// service name on the request context. It passes everything through when
// tokens are not configured.
func ServiceAuthMiddleware(tokens *auth.ServiceTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokens.Enabled() {
			c.Next()
			return
		}
		b := c.GetHeader("Authorization")
		if !strings.HasPrefix(b, "Bearer ") {
			// Browsers cannot set headers on a WebSocket handshake.
			b = "Bearer " + c.Query("access_token")
		}
		tok := strings.TrimPrefix(b, "Bearer ")
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token"})
			return
		}
		service, err := tokens.Verify(tok)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("bad service token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad token"})
			return
		}
		c.Set("service", service)
		c.Request = c.Request.WithContext(auth.WithService(c.Request.Context(), service))
		c.Next()
	}
}
