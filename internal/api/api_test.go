package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/api"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/service"
	"github.com/pageza/modelhistory/internal/testhelpers"
	"github.com/pageza/modelhistory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router *gin.Engine
	token  string
	user   *models.User
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLite(t)
	plugin, err := service.NewHistorizable(db, "Europe/Berlin", "de_DE")
	require.NoError(t, err)

	user := testhelpers.CreateTestUser(t, db, "Ada", "Lovelace")

	router := api.NewRouter(api.Services{
		Auth:     service.NewAuthService(db, "test-secret"),
		Articles: service.NewArticleService(db),
		History:  service.NewHistoryService(db, plugin, nil, nil),
	})

	a := &testAPI{router: router, user: user}
	w := a.do(t, http.MethodPost, "/api/v1/auth/login", types.LoginRequest{Email: "ada@example.com", Password: testhelpers.TestPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login types.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	a.token = login.Token
	return a
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

func TestHealthCheck(t *testing.T) {
	a := setupAPI(t)
	w := a.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	a := setupAPI(t)
	a.token = ""
	w := a.do(t, http.MethodPost, "/api/v1/auth/login", types.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
}

func TestRoutesRequireToken(t *testing.T) {
	a := setupAPI(t)
	a.token = ""
	w := a.do(t, http.MethodGet, "/api/v1/history/articles/1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestArticleHistoryFlow(t *testing.T) {
	a := setupAPI(t)

	w := a.do(t, http.MethodPost, "/api/v1/articles", types.ArticleRequest{Title: strPtr("First"), Content: strPtr("text")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var article models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &article))
	id := article.ID.String()

	w = a.do(t, http.MethodPut, "/api/v1/articles/"+id, types.ArticleRequest{Title: strPtr("Second")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/v1/history/articles/"+id+"/comments", types.CommentRequest{Comment: "renamed"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/v1/history/articles/"+id+"?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page types.HistoryPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, models.ActionComment, page.Entries[0].Action)
	assert.Equal(t, "renamed", page.Entries[0].Comment)
	assert.Equal(t, "Ada Lovelace", page.Entries[0].UserName)
	assert.Equal(t, models.ActionUpdate, page.Entries[1].Action)
	assert.Equal(t, models.ContextTypeHTTP, page.Entries[1].ContextType)
	assert.Equal(t, "PUT /api/v1/articles/:id", page.Entries[1].ContextSlug)

	w = a.do(t, http.MethodGet, "/api/v1/history/articles/"+id+"/diff?from=1&to=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var diff struct {
		Changes []struct {
			Field string `json:"field"`
			Old   string `json:"old"`
			New   string `json:"new"`
		} `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &diff))
	require.Len(t, diff.Changes, 1)
	assert.Equal(t, "title", diff.Changes[0].Field)
	assert.Equal(t, "First", diff.Changes[0].Old)
	assert.Equal(t, "Second", diff.Changes[0].New)

	w = a.do(t, http.MethodGet, "/api/v1/history/articles?user=love", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Ada Lovelace")

	w = a.do(t, http.MethodDelete, "/api/v1/articles/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(t, http.MethodGet, "/api/v1/articles/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryErrors(t *testing.T) {
	a := setupAPI(t)
	missingID := uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
	}{
		{"untracked model", http.MethodGet, "/api/v1/history/recipes/1", nil, http.StatusNotFound},
		{"bad page", http.MethodGet, "/api/v1/history/articles/1?page=x", nil, http.StatusBadRequest},
		{"diff without range", http.MethodGet, "/api/v1/history/articles/1/diff", nil, http.StatusBadRequest},
		{"missing revision", http.MethodGet, "/api/v1/history/articles/1/diff?from=0&to=5", nil, http.StatusNotFound},
		{"blank comment", http.MethodPost, "/api/v1/history/articles/1/comments", types.CommentRequest{Comment: "   "}, http.StatusBadRequest},
		{"comment on missing article", http.MethodPost, "/api/v1/history/articles/" + missingID + "/comments", types.CommentRequest{Comment: "hello"}, http.StatusNotFound},
		{"comment on malformed id", http.MethodPost, "/api/v1/history/articles/1/comments", types.CommentRequest{Comment: "hello"}, http.StatusNotFound},
		{"page past the end", http.MethodGet, "/api/v1/history/articles/1?page=922337203685477582", nil, http.StatusOK},
		{"archive disabled", http.MethodPost, "/api/v1/history/articles/1/archive", nil, http.StatusServiceUnavailable},
		{"bad article id", http.MethodPut, "/api/v1/articles/nope", types.ArticleRequest{}, http.StatusBadRequest},
		{"invalid status", http.MethodPost, "/api/v1/articles", types.ArticleRequest{Title: strPtr("x"), Status: strPtr("gone")}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestListModels(t *testing.T) {
	a := setupAPI(t)
	w := a.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"models":["articles","users"]}`, w.Body.String())
}
