package service

import (
	"fmt"

	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"gorm.io/gorm"
)

// NewHistorizable installs the history plugin on db and tracks the application models.
// Dates are stored and shown in timezone, formatted for locale.
func NewHistorizable(db *gorm.DB, timezone, locale string) (*history.Historizable, error) {
	dates, err := history.NewDateFilter(timezone, locale)
	if err != nil {
		return nil, err
	}

	registry := history.NewRegistry().
		Register("articles", "published_at", dates)

	h := history.New(registry)
	if err := db.Use(h); err != nil {
		return nil, fmt.Errorf("failed to install history plugin: %w", err)
	}

	if _, err := h.Track(&models.User{}, history.ModelConfig{
		Fields: []history.FieldConfig{
			{Name: "firstname", Label: "First name", Searchable: true},
			{Name: "lastname", Label: "Last name", Searchable: true},
			{Name: "email", Label: "E-mail", Searchable: true},
			{Name: "password_hash", Label: "Password", Obfuscated: true},
		},
		DisplayField: "firstname",
		ViewPath:     "/users/:id",
	}); err != nil {
		return nil, err
	}

	if _, err := h.Track(&models.Article{}, history.ModelConfig{
		Fields: []history.FieldConfig{
			{Name: "title", Label: "Title", Searchable: true},
			{Name: "content", Label: "Content"},
			{Name: "status", Label: "Status", Searchable: true},
			{Name: "user_id", Label: "Author"},
			{Name: "published_at", Label: "Published"},
		},
		Relations: map[string]history.Relation{
			"user_id": {Table: "users", DisplayField: "firstname", Path: "/users/:id"},
		},
		DisplayField: "title",
		ViewPath:     "/articles/:id",
	}); err != nil {
		return nil, err
	}

	return h, nil
}
