package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/modelhistory/config"
	"github.com/pageza/modelhistory/internal/api"
	"github.com/pageza/modelhistory/internal/archive"
	"github.com/pageza/modelhistory/internal/cache"
	"github.com/pageza/modelhistory/internal/database"
	"github.com/pageza/modelhistory/internal/middleware"
	"github.com/pageza/modelhistory/internal/service"
)

const userNameTTL = 10 * time.Minute

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	cfg    *config.Config
	db     *gorm.DB
	redis  *redis.Client
}

// New wires the history plugin, services and routes onto db. Redis and S3 are
// optional; without them author names are not cached and archiving is disabled.
func New(cfg *config.Config, db *gorm.DB) (*Server, error) {
	plugin, err := service.NewHistorizable(db, cfg.HistoryTimezone, cfg.HistoryLocale)
	if err != nil {
		return nil, fmt.Errorf("failed to set up history tracking: %w", err)
	}

	s := &Server{cfg: cfg, db: db}

	var names cache.UserNames
	var limiter *middleware.RateLimiter
	if cfg.RedisURL != "" || cfg.RedisHost != "" {
		client, err := database.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis, continuing without cache: %v", err)
		} else {
			s.redis = client
			names = cache.NewRedisUserNames(client, userNameTTL)
			limiter = middleware.NewArchiveRateLimiter(client)
		}
	}

	var archiver *archive.Archiver
	if cfg.S3BucketName != "" {
		s3cfg, err := config.NewS3Config(context.Background(), cfg)
		if err != nil {
			log.Printf("Warning: Failed to configure S3, archiving disabled: %v", err)
		} else {
			archiver = archive.NewArchiver(s3cfg.Client, s3cfg.BucketName)
		}
	}

	s.router = api.NewRouter(api.Services{
		Auth:           service.NewAuthService(db, cfg.JWTSecret),
		Articles:       service.NewArticleService(db),
		History:        service.NewHistoryService(db, plugin, names, archiver),
		ArchiveLimiter: limiter,
	}, middleware.CORS(nil))

	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.cfg.ServerHost, s.cfg.ServerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and closes Redis
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			return err
		}
	}
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
