package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rafrcruz/lkdposts-sub001/internal/feed"
	"github.com/rafrcruz/lkdposts-sub001/internal/generator"
	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

const shutdownTimeout = 10 * time.Second

// Runner is the generation engine surface the handlers consume.
type Runner interface {
	Run(ctx context.Context, ownerKey string) (*models.RunOutcome, error)
	Progress(ownerKey string) *models.RunProgress
	BuildPreview(ctx context.Context, ownerKey string, articleID *int64) (*generator.Preview, error)
	ProbeRaw(ctx context.Context, ownerKey string, articleID *int64) (*generator.RawResult, error)
}

// Store is the persistence surface of the CRUD handlers.
type Store interface {
	AddFeed(ctx context.Context, ownerKey, feedURL, feedTitle string) error
	RemoveFeed(ctx context.Context, ownerKey string, feedID int64) error
	ListFeedsPage(
		ctx context.Context,
		ownerKey string,
		limit int64,
		offset int64,
	) ([]models.Feed, int64, error)
	ListPrompts(ctx context.Context, ownerKey string) ([]models.Prompt, error)
	AddPrompt(ctx context.Context, prompt *models.Prompt) error
	UpdatePrompt(ctx context.Context, prompt *models.Prompt) error
	RemovePrompt(ctx context.Context, ownerKey string, promptID int64) error
	ReorderPrompts(ctx context.Context, ownerKey string, promptIDs []int64) error
	ListGeneratedPosts(
		ctx context.Context,
		ownerKey string,
		limit int64,
		offset int64,
	) ([]models.GeneratedPost, error)
	GetOwnerSettingsWithDefault(
		ctx context.Context,
		ownerKey string,
		defaults models.OwnerSettings,
	) (*models.OwnerSettings, error)
	UpsertOwnerSettings(ctx context.Context, settings *models.OwnerSettings) error
}

type Server struct {
	engine    *gin.Engine
	http      *http.Server
	runner    Runner
	store     Store
	discovery *feed.Refresher
	defaults  models.OwnerSettings
	log       *slog.Logger
}

func New(
	addr string,
	jwtSecret string,
	runner Runner,
	store Store,
	discovery *feed.Refresher,
	defaults models.OwnerSettings,
	log *slog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		runner:    runner,
		store:     store,
		discovery: discovery,
		defaults:  defaults,
		log:       log,
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := engine.Group("/", AuthMiddleware(jwtSecret))
	{
		authed.POST("/posts/refresh", s.refreshPosts)
		authed.GET("/posts/refresh-status", s.refreshStatus)
		authed.GET("/posts", s.listPosts)

		authed.GET("/feeds", s.listFeeds)
		authed.POST("/feeds", s.addFeeds)
		authed.DELETE("/feeds/:id", s.removeFeed)

		authed.GET("/prompts", s.listPrompts)
		authed.POST("/prompts", s.addPrompt)
		authed.PUT("/prompts/:id", s.updatePrompt)
		authed.DELETE("/prompts/:id", s.removePrompt)
		authed.POST("/prompts/reorder", s.reorderPrompts)

		authed.GET("/settings", s.getSettings)
		authed.PUT("/settings", s.updateSettings)

		admin := authed.Group("/", AdminOnly())
		{
			admin.GET("/posts/preview", s.previewPost)
			admin.GET("/posts/preview/raw", s.previewPostRaw)
		}
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
