package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-platform/config"
	"wellness-platform/external"
	"wellness-platform/models"
)

type SystemHandler struct {
	cfg      *config.Config
	repo     models.Repository
	external *external.Service
}

func NewSystemHandler(cfg *config.Config, repo models.Repository, ext *external.Service) *SystemHandler {
	return &SystemHandler{cfg: cfg, repo: repo, external: ext}
}

func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": h.cfg.AppName + " API",
		"version": h.cfg.AppVersion,
		"status":  "running",
	})
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// DetailedHealth дополнительно пробует базу и внешний провайдер
// (последний — через кэш результата).
func (h *SystemHandler) DetailedHealth(c *gin.Context) {
	now := time.Now().UTC().Format(time.RFC3339)

	dbStatus := gin.H{"status": "healthy", "timestamp": now}
	status := http.StatusOK
	overall := "healthy"
	if err := h.repo.Ping(); err != nil {
		dbStatus = gin.H{"status": "unhealthy", "error": err.Error()}
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"database":     dbStatus,
		"external_api": h.external.CheckHealth(c.Request.Context()),
		"timestamp":    now,
	})
}

// Sync — ручная сверка с внешним провайдером.
func (h *SystemHandler) Sync(c *gin.Context) {
	if err := h.external.SyncAll(c.Request.Context(), h.repo); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Data sync completed successfully"})
}

func (h *SystemHandler) ExternalStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"external_api_enabled": h.cfg.ExternalAPI.Enabled,
		"circuit_breaker":      h.external.BreakerStatus(),
	})
}
