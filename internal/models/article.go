package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article statuses
const (
	ArticleDraft     = "draft"
	ArticlePublished = "published"
)

type Article struct {
	ID          uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Content     string         `gorm:"type:text" json:"content"`
	Status      string         `gorm:"size:32;not null;default:'draft'" json:"status"`
	UserID      *uuid.UUID     `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
}

func (Article) TableName() string {
	return "articles"
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
