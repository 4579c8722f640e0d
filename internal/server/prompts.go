package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

func (s *Server) listPrompts(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	prompts, err := s.store.ListPrompts(c.Request.Context(), ownerKey)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to list prompts",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list prompts"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": prompts})
}

type promptRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
	Enabled *bool  `json:"enabled"`
}

func (s *Server) addPrompt(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	var req promptRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})

		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	prompt := models.Prompt{
		OwnerKey: ownerKey,
		Title:    req.Title,
		Content:  req.Content,
		Enabled:  enabled,
	}

	if err = s.store.AddPrompt(c.Request.Context(), &prompt); err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to add prompt",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add prompt"})

		return
	}

	c.JSON(http.StatusCreated, prompt)
}

func (s *Server) updatePrompt(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	promptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})

		return
	}

	var req promptRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})

		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	prompt := models.Prompt{
		ID:       promptID,
		OwnerKey: ownerKey,
		Title:    req.Title,
		Content:  req.Content,
		Enabled:  enabled,
	}

	if err = s.store.UpdatePrompt(c.Request.Context(), &prompt); err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to update prompt",
			"error", err,
			"ownerKey", ownerKey,
			"promptID", promptID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update prompt"})

		return
	}

	c.JSON(http.StatusOK, prompt)
}

func (s *Server) removePrompt(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	promptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})

		return
	}

	if err = s.store.RemovePrompt(c.Request.Context(), ownerKey, promptID); err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to remove prompt",
			"error", err,
			"ownerKey", ownerKey,
			"promptID", promptID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove prompt"})

		return
	}

	c.Status(http.StatusNoContent)
}

type reorderPromptsRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

func (s *Server) reorderPrompts(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	var req reorderPromptsRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})

		return
	}

	if err = s.store.ReorderPrompts(c.Request.Context(), ownerKey, req.IDs); err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to reorder prompts",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder prompts"})

		return
	}

	c.Status(http.StatusNoContent)
}
