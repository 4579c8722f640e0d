package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) listFeeds(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	limit, offset := pageParams(c)

	feeds, total, err := s.store.ListFeedsPage(c.Request.Context(), ownerKey, limit, offset)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to list feeds",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feeds"})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": feeds,
		"total": total,
	})
}

type addFeedsRequest struct {
	Text string `json:"text" binding:"required"`
}

// addFeeds accepts free text, discovers feed URLs in it, validates each one
// by parsing, and registers the valid feeds for the owner.
func (s *Server) addFeeds(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	var req addFeedsRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})

		return
	}

	feeds, discoverErr := s.discovery.DiscoverFeeds(c.Request.Context(), req.Text)
	if len(feeds) == 0 {
		message := "No valid feeds found"
		if discoverErr != nil {
			s.log.WarnContext(c.Request.Context(), "Feed discovery failed",
				"error", discoverErr,
				"ownerKey", ownerKey)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": message})

		return
	}

	var added int64
	for _, f := range feeds {
		if addErr := s.store.AddFeed(c.Request.Context(), ownerKey, f.URL, f.Title); addErr != nil {
			s.log.ErrorContext(c.Request.Context(), "Failed to add feed",
				"error", addErr,
				"ownerKey", ownerKey,
				"feedURL", f.URL)

			continue
		}
		added++
	}

	c.JSON(http.StatusCreated, gin.H{
		"discovered": len(feeds),
		"added":      added,
	})
}

func (s *Server) removeFeed(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	feedID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})

		return
	}

	if err = s.store.RemoveFeed(c.Request.Context(), ownerKey, feedID); err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to remove feed",
			"error", err,
			"ownerKey", ownerKey,
			"feedID", feedID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove feed"})

		return
	}

	c.Status(http.StatusNoContent)
}
