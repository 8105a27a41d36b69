package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/types"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// AuthMiddleware creates a middleware that validates JWT tokens. The user and
// the route are attached to the request context so history rows record who
// changed what through which endpoint.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		// Store user info in context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		ctx := history.WithUser(c.Request.Context(), claims.UserID)
		ctx = history.WithRequestContext(ctx, RequestContext(c))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestContext describes the current request for history rows.
func RequestContext(c *gin.Context) history.RequestContext {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return history.RequestContext{
		Type: models.ContextTypeHTTP,
		Slug: c.Request.Method + " " + route,
		Data: map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"client_ip": c.ClientIP(),
		},
	}
}
