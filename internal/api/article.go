package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/modelhistory/internal/service"
	"github.com/pageza/modelhistory/internal/types"
)

type ArticleHandler struct {
	articleService service.IArticleService
}

// NewArticleHandler creates a new ArticleHandler instance
func NewArticleHandler(articleService service.IArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService}
}

// RegisterRoutes registers the article routes
func (h *ArticleHandler) RegisterRoutes(router *gin.RouterGroup) {
	articles := router.Group("/articles")
	{
		articles.POST("", h.Create)
		articles.GET("/:id", h.Get)
		articles.PUT("/:id", h.Update)
		articles.DELETE("/:id", h.Delete)
	}
}

// Get handles GET /articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	article, err := h.articleService.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Create handles POST /articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var req types.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	article, err := h.articleService.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// Update handles PUT /articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	var req types.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	article, err := h.articleService.Update(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Delete handles DELETE /articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	if err := h.articleService.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func articleID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid article id", errBadRequest))
		return uuid.Nil, false
	}
	return id, true
}
