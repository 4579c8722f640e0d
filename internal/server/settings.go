package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

func (s *Server) getSettings(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	settings, err := s.store.GetOwnerSettingsWithDefault(c.Request.Context(), ownerKey, s.defaults)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to load settings",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})

		return
	}

	c.JSON(http.StatusOK, settings)
}

type settingsRequest struct {
	WindowDays      int64  `json:"windowDays" binding:"required,min=1,max=90"`
	CooldownSeconds int64  `json:"cooldownSeconds" binding:"min=0"`
	Model           string `json:"model" binding:"required"`
}

func (s *Server) updateSettings(c *gin.Context) {
	ownerKey, err := ownerKeyFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

		return
	}

	var req settingsRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})

		return
	}

	settings := models.OwnerSettings{
		OwnerKey:        ownerKey,
		WindowDays:      req.WindowDays,
		CooldownSeconds: req.CooldownSeconds,
		Model:           req.Model,
	}

	if err = s.store.UpsertOwnerSettings(c.Request.Context(), &settings); err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to update settings",
			"error", err,
			"ownerKey", ownerKey)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})

		return
	}

	c.JSON(http.StatusOK, settings)
}
