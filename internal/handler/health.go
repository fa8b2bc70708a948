package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maturity-diagnostic/internal/content"
	"go.uber.org/zap"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger.Named("health_handler"),
	}
}

// Handle processes GET /health requests.
func (h *HealthHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyHandler handles readiness check requests.
type ReadyHandler struct {
	svc    Diagnostics
	logger *zap.Logger
}

// NewReadyHandler creates a new ReadyHandler.
func NewReadyHandler(svc Diagnostics, logger *zap.Logger) *ReadyHandler {
	return &ReadyHandler{
		svc:    svc,
		logger: logger.Named("ready_handler"),
	}
}

// Handle processes GET /ready requests. Only required components decide
// the status code.
func (h *ReadyHandler) Handle(c *gin.Context) {
	components := h.svc.Readiness(c.Request.Context())

	status, code := "ready", http.StatusOK
	for _, comp := range components {
		if comp.Required && !comp.Healthy {
			status, code = "not_ready", http.StatusServiceUnavailable
			h.logger.Warn("required component unhealthy",
				zap.String("component", comp.Name), zap.String("error", comp.Error))
		}
	}

	c.JSON(code, gin.H{
		"status":     status,
		"components": components,
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}

// QuestionsHandler serves the form content.
type QuestionsHandler struct {
	catalog *content.Catalog
}

// NewQuestionsHandler creates a new QuestionsHandler.
func NewQuestionsHandler(catalog *content.Catalog) *QuestionsHandler {
	return &QuestionsHandler{catalog: catalog}
}

// Handle processes GET /api/v1/questions requests.
func (h *QuestionsHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "questions": h.catalog.QuestionList()})
}
