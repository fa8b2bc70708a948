package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/internal/render"
	"go.uber.org/zap"
)

// ResultPageHandler renders the HTML result page.
type ResultPageHandler struct {
	svc    Diagnostics
	page   *render.ResultPage
	logger *zap.Logger
}

// NewResultPageHandler creates a new ResultPageHandler.
func NewResultPageHandler(svc Diagnostics, page *render.ResultPage, logger *zap.Logger) *ResultPageHandler {
	return &ResultPageHandler{
		svc:    svc,
		page:   page,
		logger: logger.Named("result_page_handler"),
	}
}

// Handle processes GET /resultado/:id requests.
func (h *ResultPageHandler) Handle(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := http.StatusNotFound
		if !errors.Is(err, domain.ErrRecordNotFound) {
			code = http.StatusInternalServerError
			h.logger.Error("result page lookup failed",
				zap.String("request_id", requestID(c)), zap.Error(err))
		}
		c.HTML(code, render.ResultTemplateName, render.NotFoundView())
		return
	}
	c.HTML(http.StatusOK, render.ResultTemplateName, h.page.View(rec))
}
