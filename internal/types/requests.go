package types

import (
	"time"

	"github.com/pageza/modelhistory/internal/history"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token string `json:"token"`
}

// ArticleRequest creates or updates an article. Nil fields are left unchanged on update.
type ArticleRequest struct {
	Title       *string    `json:"title"`
	Content     *string    `json:"content"`
	Status      *string    `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
}

// CommentRequest adds a comment to an entity's history
type CommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// HistoryPage is the response of the history listing
type HistoryPage struct {
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Entries []history.Entry `json:"entries"`
}
