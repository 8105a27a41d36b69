package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// History actions
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionComment = "comment"
)

// Context types recorded with every history row
const (
	ContextTypeHTTP   = "http"
	ContextTypeCLI    = "cli"
	ContextTypeCustom = "custom"
)

// ModelHistory is one append-only audit entry for a tracked entity.
// Data holds the new values of the changed fields, OldData the values they replaced.
type ModelHistory struct {
	ID          uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"id"`
	Model       string     `gorm:"size:255;not null;index:idx_model_history_entity,priority:1" json:"model"`
	ForeignKey  string     `gorm:"size:64;not null;index:idx_model_history_entity,priority:2" json:"foreign_key"`
	UserID      *uuid.UUID `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	Action      string     `gorm:"size:16;not null" json:"action"`
	Data        JSONMap    `gorm:"type:text" json:"data"`
	OldData     JSONMap    `gorm:"type:text" json:"old_data"`
	Revision    int        `gorm:"not null" json:"revision"`
	ContextType string     `gorm:"size:32" json:"context_type"`
	Context     JSONMap    `gorm:"type:text" json:"context"`
	ContextSlug string     `gorm:"size:255" json:"context_slug"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for ModelHistory
func (ModelHistory) TableName() string {
	return "model_history"
}

// BeforeCreate assigns an id when none was set
func (h *ModelHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
