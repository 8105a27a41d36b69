package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/middleware"
	"github.com/pageza/modelhistory/internal/service"
	"github.com/pageza/modelhistory/internal/types"
)

type HistoryHandler struct {
	historyService service.IHistoryService
	archiveLimiter *middleware.RateLimiter
}

// NewHistoryHandler creates a new HistoryHandler instance. archiveLimiter may be nil.
func NewHistoryHandler(historyService service.IHistoryService, archiveLimiter *middleware.RateLimiter) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		archiveLimiter: archiveLimiter,
	}
}

// RegisterRoutes registers the history routes
func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/history")
	{
		group.GET("", h.Models)
		group.GET("/:model", h.SearchByUser)
		group.GET("/:model/:id", h.List)
		group.GET("/:model/:id/diff", h.Diff)
		group.POST("/:model/:id/comments", h.Comment)

		archive := []gin.HandlerFunc{}
		if h.archiveLimiter != nil {
			archive = append(archive, h.archiveLimiter.RateLimitMiddleware())
		}
		archive = append(archive, h.Archive)
		group.POST("/:model/:id/archive", archive...)
	}
}

// Models handles GET /history
func (h *HistoryHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.historyService.Models()})
}

// List handles GET /history/:model/:id?page=&limit=
func (h *HistoryHandler) List(c *gin.Context) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		_ = c.Error(err)
		return
	}
	limit, err := intQuery(c, "limit", 10)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.historyService.List(c.Request.Context(), c.Param("model"), c.Param("id"),
		history.Page{Number: page, Limit: limit})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Diff handles GET /history/:model/:id/diff?from=&to=
func (h *HistoryHandler) Diff(c *gin.Context) {
	from, err := intQuery(c, "from", -1)
	if err != nil {
		_ = c.Error(err)
		return
	}
	to, err := intQuery(c, "to", -1)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if from < 0 || to < 0 {
		_ = c.Error(fmt.Errorf("%w: from and to are required", errBadRequest))
		return
	}

	changes, err := h.historyService.Diff(c.Request.Context(), c.Param("model"), c.Param("id"), from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "changes": changes})
}

// Comment handles POST /history/:model/:id/comments
func (h *HistoryHandler) Comment(c *gin.Context) {
	var req types.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	entry, err := h.historyService.Comment(c.Request.Context(), c.Param("model"), c.Param("id"), req.Comment)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// SearchByUser handles GET /history/:model?user=
func (h *HistoryHandler) SearchByUser(c *gin.Context) {
	name := c.Query("user")
	if name == "" {
		_ = c.Error(fmt.Errorf("%w: user is required", errBadRequest))
		return
	}
	entries, err := h.historyService.SearchByUser(c.Request.Context(), c.Param("model"), name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Archive handles POST /history/:model/:id/archive
func (h *HistoryHandler) Archive(c *gin.Context) {
	key, err := h.historyService.Archive(c.Request.Context(), c.Param("model"), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"key": key})
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, name)
	}
	return v, nil
}
