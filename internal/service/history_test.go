package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pageza/modelhistory/internal/archive"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/service"
	"github.com/pageza/modelhistory/internal/testhelpers"
	"github.com/pageza/modelhistory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryNames struct {
	names map[string]string
	gets  int
}

func (m *memoryNames) Get(_ context.Context, ids []string) (map[string]string, error) {
	m.gets++
	out := make(map[string]string)
	for _, id := range ids {
		if n, ok := m.names[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (m *memoryNames) Set(_ context.Context, names map[string]string) error {
	for id, n := range names {
		m.names[id] = n
	}
	return nil
}

type recordingPutter struct {
	key  string
	body []byte
}

func (p *recordingPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.key = *in.Key
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	p.body = body
	return &s3.PutObjectOutput{}, nil
}

type historyEnv struct {
	db       *gorm.DB
	articles *service.ArticleService
	history  *service.HistoryService
	names    *memoryNames
	putter   *recordingPutter
	author   *models.User
	ctx      context.Context
}

func setupHistory(t *testing.T) *historyEnv {
	t.Helper()
	db := testhelpers.SetupSQLite(t)
	plugin, err := service.NewHistorizable(db, "Europe/Berlin", "de_DE")
	require.NoError(t, err)

	author := &models.User{Firstname: "Grace", Lastname: "Hopper", Email: "grace@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(author).Error)

	names := &memoryNames{names: map[string]string{}}
	putter := &recordingPutter{}
	return &historyEnv{
		db:       db,
		articles: service.NewArticleService(db),
		history:  service.NewHistoryService(db, plugin, names, archive.NewArchiver(putter, "bucket")),
		names:    names,
		putter:   putter,
		author:   author,
		ctx:      history.WithUser(context.Background(), author.ID),
	}
}

func strPtr(s string) *string { return &s }

func TestHistoryServiceList(t *testing.T) {
	env := setupHistory(t)

	published := time.Date(2026, 10, 3, 12, 30, 0, 0, time.UTC)
	article, err := env.articles.Create(env.ctx, &types.ArticleRequest{Title: strPtr("Draft"), Content: strPtr("body")})
	require.NoError(t, err)
	_, err = env.articles.Update(env.ctx, article.ID, &types.ArticleRequest{
		Title:       strPtr("Final"),
		Status:      strPtr(models.ArticlePublished),
		PublishedAt: &published,
	})
	require.NoError(t, err)

	page, err := env.history.List(env.ctx, "articles", article.ID.String(), history.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Entries, 2)

	update := page.Entries[0]
	assert.Equal(t, models.ActionUpdate, update.Action)
	assert.Equal(t, 2, update.Revision)
	assert.Equal(t, "Grace Hopper", update.UserName)

	byField := make(map[string]history.Change)
	for _, c := range update.Changes {
		byField[c.Field] = c
	}
	assert.Equal(t, "Draft", byField["title"].Old)
	assert.Equal(t, "Final", byField["title"].New)
	assert.Equal(t, "03.10.2026, 14:30", byField["published_at"].New)

	assert.Equal(t, "Grace Hopper", env.names.names[env.author.ID.String()])
}

func TestHistoryServiceUsesCachedNames(t *testing.T) {
	env := setupHistory(t)
	env.names.names[env.author.ID.String()] = "Rear Admiral Hopper"

	article, err := env.articles.Create(env.ctx, &types.ArticleRequest{Title: strPtr("Cached")})
	require.NoError(t, err)

	page, err := env.history.List(env.ctx, "articles", article.ID.String(), history.Page{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "Rear Admiral Hopper", page.Entries[0].UserName)
}

func TestHistoryServiceUnknownModel(t *testing.T) {
	env := setupHistory(t)
	_, err := env.history.List(env.ctx, "recipes", "1", history.Page{})
	assert.ErrorIs(t, err, history.ErrModelNotTracked)
	assert.Equal(t, []string{"articles", "users"}, env.history.Models())
}

func TestHistoryServiceCommentAndDiff(t *testing.T) {
	env := setupHistory(t)

	article, err := env.articles.Create(env.ctx, &types.ArticleRequest{Title: strPtr("One")})
	require.NoError(t, err)
	_, err = env.articles.Update(env.ctx, article.ID, &types.ArticleRequest{Title: strPtr("Two")})
	require.NoError(t, err)

	entry, err := env.history.Comment(env.ctx, "articles", article.ID.String(), "  looks good ")
	require.NoError(t, err)
	assert.Equal(t, "looks good", entry.Comment)
	assert.Equal(t, 3, entry.Revision)
	assert.Equal(t, "Grace Hopper", entry.UserName)

	_, err = env.history.Comment(env.ctx, "articles", article.ID.String(), " ")
	assert.ErrorIs(t, err, history.ErrEmptyComment)

	changes, err := env.history.Diff(env.ctx, "articles", article.ID.String(), 1, 2)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "title", changes[0].Field)
	assert.Equal(t, "One", changes[0].Old)
	assert.Equal(t, "Two", changes[0].New)
}

func TestHistoryServiceSearchByUser(t *testing.T) {
	env := setupHistory(t)
	_, err := env.articles.Create(env.ctx, &types.ArticleRequest{Title: strPtr("Searchable")})
	require.NoError(t, err)

	entries, err := env.history.SearchByUser(env.ctx, "articles", "hop")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Grace Hopper", entries[0].UserName)

	entries, err = env.history.SearchByUser(env.ctx, "articles", "nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryServiceArchive(t *testing.T) {
	env := setupHistory(t)
	article, err := env.articles.Create(env.ctx, &types.ArticleRequest{Title: strPtr("Archived")})
	require.NoError(t, err)
	require.NoError(t, env.articles.Delete(env.ctx, article.ID))

	key, err := env.history.Archive(env.ctx, "articles", article.ID.String())
	require.NoError(t, err)
	assert.Equal(t, env.putter.key, key)
	assert.Contains(t, key, "history/articles/"+article.ID.String()+"/")
	assert.Contains(t, string(env.putter.body), `"action": "delete"`)
	assert.Contains(t, string(env.putter.body), `"action": "create"`)
}

func TestHistoryServiceArchiveDisabled(t *testing.T) {
	env := setupHistory(t)
	svc := service.NewHistoryService(env.db, nil, nil, nil)
	_, err := svc.Archive(env.ctx, "articles", "1")
	assert.ErrorIs(t, err, service.ErrArchiveDisabled)
}
