package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IArticleService defines the interface for article operations
type IArticleService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Article, error)
	Create(ctx context.Context, req *types.ArticleRequest) (*models.Article, error)
	Update(ctx context.Context, id uuid.UUID, req *types.ArticleRequest) (*models.Article, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// IHistoryService defines the interface for browsing and annotating history
type IHistoryService interface {
	Models() []string
	List(ctx context.Context, model, id string, page history.Page) (*types.HistoryPage, error)
	Diff(ctx context.Context, model, id string, from, to int) ([]history.Change, error)
	Comment(ctx context.Context, model, id, comment string) (*history.Entry, error)
	SearchByUser(ctx context.Context, model, name string) ([]history.Entry, error)
	Archive(ctx context.Context, model, id string) (string, error)
}

var (
	_ IAuthService    = (*AuthService)(nil)
	_ IArticleService = (*ArticleService)(nil)
	_ IHistoryService = (*HistoryService)(nil)
)
