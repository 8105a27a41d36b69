package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/api"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/mocks"
	"github.com/pageza/modelhistory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newMockRouter(t *testing.T) (*gin.Engine, *mocks.MockHistoryService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := &mocks.MockAuthService{}
	auth.On("ValidateToken", "token").Return(&types.TokenClaims{UserID: uuid.New()}, nil)
	hist := &mocks.MockHistoryService{}
	t.Cleanup(func() { hist.AssertExpectations(t) })

	return api.NewRouter(api.Services{
		Auth:     auth,
		Articles: &mocks.MockArticleService{},
		History:  hist,
	}), hist
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(w, req)
	return w
}

func TestListPassesPaging(t *testing.T) {
	r, hist := newMockRouter(t)
	hist.On("List", mock.Anything, "articles", "42", history.Page{Number: 3, Limit: 25}).
		Return(&types.HistoryPage{Total: 60, Page: 3, Limit: 25, Entries: []history.Entry{}}, nil)

	w := serve(r, http.MethodGet, "/api/v1/history/articles/42?page=3&limit=25")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":60,"page":3,"limit":25,"entries":[]}`, w.Body.String())
}

func TestInternalErrorsAreHidden(t *testing.T) {
	r, hist := newMockRouter(t)
	hist.On("Archive", mock.Anything, "articles", "42").Return("", errors.New("connection reset by peer"))

	w := serve(r, http.MethodPost, "/api/v1/history/articles/42/archive")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
}

func TestArchiveReturnsKey(t *testing.T) {
	r, hist := newMockRouter(t)
	hist.On("Archive", mock.Anything, "articles", "42").Return("history/articles/42/x.json", nil)

	w := serve(r, http.MethodPost, "/api/v1/history/articles/42/archive")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"key":"history/articles/42/x.json"}`, w.Body.String())
}

func TestSearchRequiresUser(t *testing.T) {
	r, _ := newMockRouter(t)
	w := serve(r, http.MethodGet, "/api/v1/history/articles")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
