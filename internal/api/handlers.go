package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/middleware"
	"github.com/pageza/modelhistory/internal/service"
)

// Services bundles what the handlers need. ArchiveLimiter is optional.
type Services struct {
	Auth           service.IAuthService
	Articles       service.IArticleService
	History        service.IHistoryService
	ArchiveLimiter *middleware.RateLimiter
}

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Model history API is running",
		"version": "v1.0.0",
	})
}

// NewRouter builds the engine with error rendering, the given middleware and all routes
func NewRouter(svc Services, mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.ErrorHandler(StatusFor))
	router.Use(mw...)
	RegisterRoutes(router, svc)
	return router
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, svc Services) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	NewAuthHandler(svc.Auth).RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(svc.Auth))
	NewArticleHandler(svc.Articles).RegisterRoutes(protected)
	NewHistoryHandler(svc.History, svc.ArchiveLimiter).RegisterRoutes(protected)
}

// StatusFor maps service errors to HTTP statuses
func StatusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrModelNotTracked),
		errors.Is(err, history.ErrRevisionNotFound),
		errors.Is(err, history.ErrEntityNotFound),
		errors.Is(err, service.ErrArticleNotFound):
		return http.StatusNotFound
	case errors.Is(err, history.ErrEmptyComment),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrArchiveDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")
