package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	claims *types.TokenClaims
}

func (v stubValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if token != "good" {
		return nil, errors.New("invalid token")
	}
	return v.claims, nil
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	var gotUser uuid.UUID
	var gotRC history.RequestContext
	r := gin.New()
	r.Use(AuthMiddleware(stubValidator{claims: &types.TokenClaims{UserID: userID}}))
	r.PUT("/api/v1/articles/:id", func(c *gin.Context) {
		gotUser, _ = history.UserFromContext(c.Request.Context())
		gotRC = history.RequestContextFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	t.Run("valid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/api/v1/articles/42", nil)
		req.Header.Set("Authorization", "Bearer good")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, userID, gotUser)
		assert.Equal(t, models.ContextTypeHTTP, gotRC.Type)
		assert.Equal(t, "PUT /api/v1/articles/:id", gotRC.Slug)
		assert.Equal(t, "/api/v1/articles/42", gotRC.Data["path"])
	})

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic good",
		"bad token":      "Bearer bad",
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPut, "/api/v1/articles/42", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
