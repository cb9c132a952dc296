package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/identity"
	"github.com/edulink-id/parent-portal-api/internal/models"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

// ContextUserKey is the gin context key storing the validated claims.
const ContextUserKey = "currentUser"

// ContextTokenKey stores the raw bearer token for sign-out.
const ContextTokenKey = "currentToken"

// JWT protects routes by requiring a valid access token.
func JWT(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := provider.Validate(token)
		if err != nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// CurrentClaims returns the claims attached by JWT, or nil.
func CurrentClaims(c *gin.Context) *models.JWTClaims {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := raw.(*models.JWTClaims)
	return claims
}

// CurrentToken returns the raw bearer token attached by JWT.
func CurrentToken(c *gin.Context) string {
	raw, exists := c.Get(ContextTokenKey)
	if !exists {
		return ""
	}
	token, _ := raw.(string)
	return token
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
