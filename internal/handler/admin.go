package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
)

// SessionCookie is the cookie alternative to the Authorization header.
const SessionCookie = "admin_session"

// Gate is the admin auth surface used by the handlers.
type Gate interface {
	Login(ctx context.Context, address, password string) (string, error)
	Logout(ctx context.Context, token string) error
	ValidateSession(ctx context.Context, token, address string) error
	FailureDelay() time.Duration
}

type loginRequest struct {
	Password string `json:"password"`
}

// AdminAuthHandler handles admin sign-in and sign-out.
type AdminAuthHandler struct {
	gate   Gate
	sleep  func(context.Context, time.Duration)
	logger *zap.Logger
}

// NewAdminAuthHandler creates a new AdminAuthHandler.
func NewAdminAuthHandler(gate Gate, logger *zap.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		gate:   gate,
		sleep:  sleepContext,
		logger: logger.Named("admin_auth_handler"),
	}
}

// Login processes POST /api/admin/auth requests.
func (h *AdminAuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	address := c.ClientIP()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An unreadable body is an empty credential
		req.Password = ""
	}

	token, err := h.gate.Login(ctx, address, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "sessionToken": token})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, errorBody("Muitas tentativas. Tente novamente em 15 minutos."))
	case errors.Is(err, domain.ErrAdminNotConfigured):
		c.JSON(http.StatusInternalServerError, errorBody("Admin password not configured"))
	case errors.Is(err, domain.ErrEmptyPassword):
		c.JSON(http.StatusBadRequest, errorBody("Senha inválida"))
	case errors.Is(err, domain.ErrWrongPassword):
		h.sleep(ctx, h.gate.FailureDelay())
		c.JSON(http.StatusUnauthorized, errorBody("Senha incorreta"))
	default:
		h.logger.Error("admin login failed",
			zap.String("request_id", requestID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("Erro ao verificar senha"))
	}
}

// Logout processes DELETE /api/admin/auth requests.
func (h *AdminAuthHandler) Logout(c *gin.Context) {
	if err := h.gate.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		h.logger.Warn("logout failed", zap.String("request_id", requestID(c)), zap.Error(err))
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RequireSession rejects requests without a valid admin session.
func RequireSession(gate Gate, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("require_session")
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Token de autenticação não fornecido"))
			return
		}

		err := gate.ValidateSession(c.Request.Context(), token, c.ClientIP())
		if err != nil {
			if !errors.Is(err, domain.ErrSessionInvalid) {
				logger.Error("session check failed",
					zap.String("request_id", requestID(c)), zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("Sessão inválida ou expirada"))
			return
		}
		c.Next()
	}
}

// sessionToken reads a bearer token, falling back to the session cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// AdminDiagnosticsHandler serves the admin listing.
type AdminDiagnosticsHandler struct {
	svc    Diagnostics
	logger *zap.Logger
}

// NewAdminDiagnosticsHandler creates a new AdminDiagnosticsHandler.
func NewAdminDiagnosticsHandler(svc Diagnostics, logger *zap.Logger) *AdminDiagnosticsHandler {
	return &AdminDiagnosticsHandler{
		svc:    svc,
		logger: logger.Named("admin_diagnostics_handler"),
	}
}

// Handle processes GET /api/admin/diagnostics requests. With ?id= it
// returns one full record; otherwise every stored record, newest first.
func (h *AdminDiagnosticsHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		rec, err := h.svc.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, errorBody("Diagnóstico não encontrado"))
				return
			}
			h.logger.Error("admin lookup failed",
				zap.String("request_id", requestID(c)), zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, errorBody("Erro ao buscar diagnósticos"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "record": rec})
		return
	}

	records := h.svc.List(ctx)
	c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
}
