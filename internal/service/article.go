package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/types"
	"gorm.io/gorm"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrInvalidStatus   = errors.New("invalid article status")
	ErrTitleRequired   = errors.New("title is required")
)

// ArticleService edits articles; every write goes through the history plugin.
type ArticleService struct {
	db *gorm.DB
}

// NewArticleService creates a new ArticleService instance
func NewArticleService(db *gorm.DB) *ArticleService {
	return &ArticleService{db: db}
}

// Get retrieves an article by ID
func (s *ArticleService) Get(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// Create stores a new article authored by the user on ctx.
func (s *ArticleService) Create(ctx context.Context, req *types.ArticleRequest) (*models.Article, error) {
	article := &models.Article{Status: models.ArticleDraft}
	if userID, ok := history.UserFromContext(ctx); ok {
		article.UserID = &userID
	}
	if err := apply(article, req); err != nil {
		return nil, err
	}
	if article.Title == "" {
		return nil, ErrTitleRequired
	}

	if err := s.db.WithContext(ctx).Create(article).Error; err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}
	return article, nil
}

// Update applies the request to an existing article
func (s *ArticleService) Update(ctx context.Context, id uuid.UUID, req *types.ArticleRequest) (*models.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(article, req); err != nil {
		return nil, err
	}
	if article.Title == "" {
		return nil, ErrTitleRequired
	}

	if err := s.db.WithContext(ctx).Save(article).Error; err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	return article, nil
}

// Delete soft-deletes an article, loading it first so the change is recorded
func (s *ArticleService) Delete(ctx context.Context, id uuid.UUID) error {
	article, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(article).Error; err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

func apply(article *models.Article, req *types.ArticleRequest) error {
	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if req.Status != nil {
		switch *req.Status {
		case models.ArticleDraft, models.ArticlePublished:
			article.Status = *req.Status
		default:
			return fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
		}
	}
	if req.PublishedAt != nil {
		article.PublishedAt = req.PublishedAt
	}
	return nil
}
