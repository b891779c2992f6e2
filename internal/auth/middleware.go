package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"travel-crm/internal/api"
	"travel-crm/internal/config"
	"travel-crm/internal/logger"

	"github.com/gin-gonic/gin"
)

const authorizationScheme = "ApiKey "

// extractAPIKey reads the key from X-API-Key, falling back to
// "Authorization: ApiKey <key>"
func extractAPIKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, authorizationScheme) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, authorizationScheme))
	}
	return ""
}

// APIKeyMiddleware rejects requests that do not carry the configured partner
// API key. An empty configured key rejects every request.
func APIKeyMiddleware(cfg *config.Config) gin.HandlerFunc {
	expected := []byte(cfg.External.APIKey)

	return func(c *gin.Context) {
		apiKey := extractAPIKey(c)

		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.APIResponse{
				Success: false,
				Error: &api.APIError{
					Code:    "MISSING_API_KEY",
					Message: "API key is required. Provide X-API-Key header or Authorization: ApiKey <key>",
				},
			})
			return
		}

		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(apiKey), expected) != 1 {
			logger.Warn().
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Msg("rejected request with invalid API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.APIResponse{
				Success: false,
				Error: &api.APIError{
					Code:    "INVALID_API_KEY",
					Message: "Invalid API key provided",
				},
			})
			return
		}

		c.Next()
	}
}
