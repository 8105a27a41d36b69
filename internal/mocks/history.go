package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockHistoryService is a mock implementation of the HistoryService interface
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) Models() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockHistoryService) List(ctx context.Context, model, id string, page history.Page) (*types.HistoryPage, error) {
	args := m.Called(ctx, model, id, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.HistoryPage), args.Error(1)
}

func (m *MockHistoryService) Diff(ctx context.Context, model, id string, from, to int) ([]history.Change, error) {
	args := m.Called(ctx, model, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]history.Change), args.Error(1)
}

func (m *MockHistoryService) Comment(ctx context.Context, model, id, comment string) (*history.Entry, error) {
	args := m.Called(ctx, model, id, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Entry), args.Error(1)
}

func (m *MockHistoryService) SearchByUser(ctx context.Context, model, name string) ([]history.Entry, error) {
	args := m.Called(ctx, model, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]history.Entry), args.Error(1)
}

func (m *MockHistoryService) Archive(ctx context.Context, model, id string) (string, error) {
	args := m.Called(ctx, model, id)
	return args.String(0), args.Error(1)
}

// MockArticleService is a mock implementation of the ArticleService interface
type MockArticleService struct {
	mock.Mock
}

func (m *MockArticleService) Get(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Article), args.Error(1)
}

func (m *MockArticleService) Create(ctx context.Context, req *types.ArticleRequest) (*models.Article, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Article), args.Error(1)
}

func (m *MockArticleService) Update(ctx context.Context, id uuid.UUID, req *types.ArticleRequest) (*models.Article, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Article), args.Error(1)
}

func (m *MockArticleService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
