package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/render"
	"go.uber.org/zap"
)

// RouterDeps are the collaborators wired into the router.
type RouterDeps struct {
	Diagnostics    Diagnostics
	Gate           Gate
	Catalog        *content.Catalog
	Page           *render.ResultPage
	TrustedProxies []string
	CORSOrigins    []string
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(deps.Page.Template())

	logger := deps.Logger

	// Apply middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware(deps.CORSOrigins))

	diagnostics := NewDiagnosticsHandler(deps.Diagnostics, logger)
	adminAuth := NewAdminAuthHandler(deps.Gate, logger)
	adminList := NewAdminDiagnosticsHandler(deps.Diagnostics, logger)

	// Register routes
	router.GET("/health", NewHealthHandler(logger).Handle)
	router.GET("/ready", NewReadyHandler(deps.Diagnostics, logger).Handle)
	router.GET("/resultado/:id", NewResultPageHandler(deps.Diagnostics, deps.Page, logger).Handle)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/questions", NewQuestionsHandler(deps.Catalog).Handle)
		v1.POST("/diagnostics", diagnostics.Submit)
		v1.GET("/diagnostics/:id", diagnostics.Get)
		v1.GET("/diagnostics/:id/pdf", diagnostics.PDF)
		v1.POST("/diagnostics/:id/enrich", diagnostics.Enrich)
		v1.POST("/diagnostics/:id/email", diagnostics.Email)
	}

	admin := router.Group("/api/admin")
	{
		admin.POST("/auth", adminAuth.Login)
		admin.DELETE("/auth", adminAuth.Logout)
		admin.GET("/diagnostics", RequireSession(deps.Gate, logger), adminList.Handle)
	}

	return router, nil
}
