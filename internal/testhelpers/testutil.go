package testhelpers

import (
	"strings"
	"testing"

	"github.com/pageza/modelhistory/internal/models"
	"gorm.io/gorm"
)

// TestPassword is the password of users made by CreateTestUser
const TestPassword = "testpassword123"

// CreateTestUser stores a user with TestPassword. The e-mail is derived from the first name.
func CreateTestUser(t *testing.T, db *gorm.DB, firstname, lastname string) *models.User {
	t.Helper()

	user := &models.User{
		Firstname: firstname,
		Lastname:  lastname,
		Email:     strings.ToLower(firstname) + "@example.com",
	}
	if err := user.SetPassword(TestPassword); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}
