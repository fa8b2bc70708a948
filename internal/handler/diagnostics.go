package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/internal/service"
	"github.com/maturity-diagnostic/pkg/sanitizer"
	"go.uber.org/zap"
)

// maxBodyBytes bounds submission bodies.
const maxBodyBytes = 16 << 10

// Diagnostics is the service surface used by the HTTP handlers.
type Diagnostics interface {
	Submit(ctx context.Context, info domain.ClientInfo, answers domain.DiagnosticAnswers) (*domain.DiagnosticRecord, error)
	Get(ctx context.Context, id string) (*domain.DiagnosticRecord, error)
	List(ctx context.Context) []domain.StoredRecord
	Enrich(ctx context.Context, id string) (string, error)
	ResendEmail(ctx context.Context, id string) error
	RenderPDF(ctx context.Context, id string) ([]byte, error)
	Readiness(ctx context.Context) []service.ComponentStatus
}

// SubmitRequest is the body of POST /api/v1/diagnostics.
type SubmitRequest struct {
	ClientInfo domain.ClientInfo        `json:"clientInfo"`
	Answers    domain.DiagnosticAnswers `json:"answers"`
}

// SubmitResponse is returned on a successful submission.
type SubmitResponse struct {
	Success bool                     `json:"success"`
	ID      string                   `json:"id"`
	Record  *domain.DiagnosticRecord `json:"record"`
}

// DiagnosticsHandler serves the public diagnostic endpoints.
type DiagnosticsHandler struct {
	svc    Diagnostics
	logger *zap.Logger
}

// NewDiagnosticsHandler creates a new DiagnosticsHandler.
func NewDiagnosticsHandler(svc Diagnostics, logger *zap.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		svc:    svc,
		logger: logger.Named("diagnostics_handler"),
	}
}

// Submit processes POST /api/v1/diagnostics requests.
func (h *DiagnosticsHandler) Submit(c *gin.Context) {
	startTime := time.Now()
	logger := h.logger.With(zap.String("request_id", requestID(c)))

	// Decode, normalize, then validate
	var req SubmitRequest
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody("Dados inválidos: corpo da requisição inválido"))
		return
	}

	req.ClientInfo.Name = sanitizer.NormalizeName(req.ClientInfo.Name)
	req.ClientInfo.Email = sanitizer.NormalizeEmail(req.ClientInfo.Email)
	req.ClientInfo.Company = sanitizer.NormalizeCompany(req.ClientInfo.Company)

	if err := binding.Validator.ValidateStruct(&req); err != nil {
		logger.Warn("submission rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorBody("Dados inválidos: "+validationMessage(err)))
		return
	}

	rec, err := h.svc.Submit(c.Request.Context(), req.ClientInfo, req.Answers)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAnswer) {
			c.JSON(http.StatusBadRequest, errorBody("Dados inválidos: "+err.Error()))
			return
		}
		logger.Error("submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("Erro ao processar diagnóstico"))
		return
	}

	logger.Info("submission completed",
		zap.String("id", rec.ID),
		zap.Duration("duration", time.Since(startTime)),
	)
	c.JSON(http.StatusOK, SubmitResponse{Success: true, ID: rec.ID, Record: rec})
}

// Get processes GET /api/v1/diagnostics/:id requests.
func (h *DiagnosticsHandler) Get(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": rec})
}

// PDF processes GET /api/v1/diagnostics/:id/pdf requests.
func (h *DiagnosticsHandler) PDF(c *gin.Context) {
	id := c.Param("id")
	pdf, err := h.svc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorBody("Diagnóstico não encontrado"))
			return
		}
		h.logger.Error("pdf generation failed",
			zap.String("request_id", requestID(c)), zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("Erro ao gerar PDF"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="diagnostico-`+id+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Enrich processes POST /api/v1/diagnostics/:id/enrich requests. Provider
// failures still answer 200 with empty text.
func (h *DiagnosticsHandler) Enrich(c *gin.Context) {
	text, err := h.svc.Enrich(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorBody("Diagnóstico não encontrado"))
			return
		}
		h.logger.Warn("enrichment lookup failed",
			zap.String("request_id", requestID(c)), zap.Error(err))
		text = ""
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enrichedContent": text})
}

// Email processes POST /api/v1/diagnostics/:id/email requests.
func (h *DiagnosticsHandler) Email(c *gin.Context) {
	err := h.svc.ResendEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorBody("Diagnóstico não encontrado"))
			return
		}
		h.logger.Error("result e-mail failed",
			zap.String("request_id", requestID(c)), zap.Error(err))
		c.JSON(http.StatusBadGateway, errorBody("Erro ao enviar email"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *DiagnosticsHandler) lookup(c *gin.Context) (*domain.DiagnosticRecord, bool) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err == nil {
		return rec, true
	}
	if errors.Is(err, domain.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, errorBody("Diagnóstico não encontrado"))
		return nil, false
	}
	h.logger.Error("diagnostic lookup failed",
		zap.String("request_id", requestID(c)), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorBody("Erro ao buscar diagnóstico"))
	return nil, false
}
