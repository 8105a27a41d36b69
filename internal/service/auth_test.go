package service_test

import (
	"context"
	"testing"

	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/service"
	"github.com/pageza/modelhistory/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	authSvc := service.NewAuthService(db, "test-secret")

	user := &models.User{Firstname: "Ada", Lastname: "Lovelace", Email: "ada@example.com"}
	require.NoError(t, user.SetPassword("correct horse"))
	require.NoError(t, db.Create(user).Error)

	t.Run("login issues a token for the user", func(t *testing.T) {
		token, got, err := authSvc.Login(context.Background(), "ada@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := authSvc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "ada@example.com", claims.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := authSvc.Login(context.Background(), "ada@example.com", "nope")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := authSvc.Login(context.Background(), "bob@example.com", "correct horse")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := service.NewAuthService(db, "other-secret").GenerateToken(user)
		require.NoError(t, err)
		_, err = authSvc.ValidateToken(token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := authSvc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})
}
