package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/service"
	"github.com/pageza/modelhistory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleServiceLifecycle(t *testing.T) {
	env := setupHistory(t)
	ctx := history.WithRequestContext(env.ctx, history.RequestContext{
		Type: models.ContextTypeCLI,
		Slug: "historyctl seed",
	})

	article, err := env.articles.Create(ctx, &types.ArticleRequest{Title: strPtr("Hello"), Content: strPtr("World")})
	require.NoError(t, err)
	require.NotNil(t, article.UserID)
	assert.Equal(t, env.author.ID, *article.UserID)
	assert.Equal(t, models.ArticleDraft, article.Status)

	_, err = env.articles.Update(ctx, article.ID, &types.ArticleRequest{Content: strPtr("World!")})
	require.NoError(t, err)
	require.NoError(t, env.articles.Delete(ctx, article.ID))

	_, err = env.articles.Get(ctx, article.ID)
	assert.ErrorIs(t, err, service.ErrArticleNotFound)

	var rows []models.ModelHistory
	require.NoError(t, env.db.Where("model = ? AND foreign_key = ?", "articles", article.ID.String()).
		Order("revision").Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{models.ActionCreate, models.ActionUpdate, models.ActionDelete},
		[]string{rows[0].Action, rows[1].Action, rows[2].Action})
	for _, row := range rows {
		assert.Equal(t, models.ContextTypeCLI, row.ContextType)
		assert.Equal(t, "historyctl seed", row.ContextSlug)
	}
	assert.Equal(t, map[string]interface{}{"content": "World!"}, map[string]interface{}(rows[1].Data))
}

func TestArticleServiceValidation(t *testing.T) {
	env := setupHistory(t)

	_, err := env.articles.Create(context.Background(), &types.ArticleRequest{})
	assert.ErrorIs(t, err, service.ErrTitleRequired)

	_, err = env.articles.Create(context.Background(), &types.ArticleRequest{Title: strPtr("x"), Status: strPtr("archived")})
	assert.ErrorIs(t, err, service.ErrInvalidStatus)

	_, err = env.articles.Update(context.Background(), uuid.New(), &types.ArticleRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, service.ErrArticleNotFound)

	var count int64
	require.NoError(t, env.db.Model(&models.ModelHistory{}).Where("model = ?", "articles").Count(&count).Error)
	assert.Zero(t, count)
}
