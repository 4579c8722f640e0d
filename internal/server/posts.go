package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rafrcruz/lkdposts-sub001/internal/generator"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// refreshPosts triggers a generation run and blocks until it completes.
func (s *Server) refreshPosts(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	outcome, err := s.runner.Run(c.Request.Context(), ownerKey)
	if err != nil {
		var cooldownErr *generator.CooldownActiveError
		switch {
		case errors.Is(err, generator.ErrRunInProgress):
			c.JSON(http.StatusConflict, gin.H{
				"code":  "RUN_IN_PROGRESS",
				"error": err.Error(),
			})
		case errors.As(err, &cooldownErr):
			c.JSON(http.StatusConflict, gin.H{
				"code":             "COOLDOWN_ACTIVE",
				"error":            err.Error(),
				"secondsRemaining": cooldownErr.SecondsRemaining,
			})
		default:
			s.log.ErrorContext(c.Request.Context(), "Failed to run generation",
				"error", err,
				"ownerKey", ownerKey)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run generation"})
		}

		return
	}

	c.JSON(http.StatusOK, outcome)
}

// refreshStatus returns the live run snapshot, or null when no run is
// active. Never blocks on the run itself.
func (s *Server) refreshStatus(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, s.runner.Progress(ownerKey))
}

func (s *Server) listPosts(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	limit, offset := pageParams(c)

	posts, err := s.store.ListGeneratedPosts(c.Request.Context(), ownerKey, limit, offset)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to list posts",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": posts})
}

func (s *Server) previewPost(c *gin.Context) {
	ownerKey, articleID, ok := s.previewParams(c)
	if !ok {
		return
	}

	preview, err := s.runner.BuildPreview(c.Request.Context(), ownerKey, articleID)
	if err != nil {
		if errors.Is(err, generator.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":  "NEWS_NOT_FOUND",
				"error": err.Error(),
			})

			return
		}

		s.log.ErrorContext(c.Request.Context(), "Failed to build preview",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build preview"})

		return
	}

	c.JSON(http.StatusOK, preview)
}

// previewPostRaw forwards the verbatim upstream response, original status
// code included.
func (s *Server) previewPostRaw(c *gin.Context) {
	ownerKey, articleID, ok := s.previewParams(c)
	if !ok {
		return
	}

	raw, err := s.runner.ProbeRaw(c.Request.Context(), ownerKey, articleID)
	if err != nil {
		if errors.Is(err, generator.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":  "NEWS_NOT_FOUND",
				"error": err.Error(),
			})

			return
		}

		s.log.ErrorContext(c.Request.Context(), "Failed to probe generation API",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach generation API"})

		return
	}

	c.Data(raw.Status, "application/json", []byte(raw.Body))
}

func (s *Server) previewParams(c *gin.Context) (string, *int64, bool) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return "", nil, false
	}

	var articleID *int64
	if raw := c.Query("newsId"); raw != "" {
		id, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "newsId must be an integer"})

			return "", nil, false
		}
		articleID = &id
	}

	return ownerKey, articleID, true
}

func pageParams(c *gin.Context) (int64, int64) {
	limit := int64(defaultPageLimit)
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil &&
			parsed > 0 && parsed <= maxPageLimit {
			limit = parsed
		}
	}

	var offset int64
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}
