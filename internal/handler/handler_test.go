package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maturity-diagnostic/internal/ai"
	"github.com/maturity-diagnostic/internal/auth"
	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/internal/notify"
	"github.com/maturity-diagnostic/internal/render"
	"github.com/maturity-diagnostic/internal/rules"
	"github.com/maturity-diagnostic/internal/service"
	"github.com/maturity-diagnostic/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	svc    *service.Diagnostics
	store  *store.MemoryStore
	clock  *time.Time
}

func adminConfig() config.AdminConfig {
	return config.AdminConfig{
		Password:      "segredo-forte",
		MaxAttempts:   5,
		LockoutWindow: 15 * time.Minute,
		SessionTTL:    24 * time.Hour,
	}
}

func newTestServer(t *testing.T, adminCfg config.AdminConfig) *testServer {
	t.Helper()
	logger := zap.NewNop()
	catalog := content.Default()

	memStore := store.NewMemoryStore()
	svc := service.NewDiagnostics(
		service.NewAssembler(catalog, rules.NewEngine(catalog, logger)),
		memStore,
		render.NewPDFRenderer(catalog, logger),
		notify.NopSender{},
		ai.NewMockClient(logger),
		config.AppConfig{BaseURL: "https://diag.example.com"},
		config.DispatchConfig{Timeout: 5 * time.Second, Concurrency: 2},
		logger,
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Drain(ctx)
	})

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	nowFn := func() time.Time { return *clock }
	gate := auth.NewGate(auth.NewMemoryState(nowFn), adminCfg, logger, auth.WithClock(nowFn))

	page, err := render.NewResultPage(catalog)
	require.NoError(t, err)

	router, err := NewRouter(RouterDeps{
		Diagnostics: svc,
		Gate:        gate,
		Catalog:     catalog,
		Page:        page,
		Logger:      logger,
	})
	require.NoError(t, err)

	return &testServer{router: router, svc: svc, store: memStore, clock: clock}
}

func (s *testServer) do(method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func validSubmission() map[string]interface{} {
	return map[string]interface{}{
		"clientInfo": map[string]string{
			"name":    "  Ana   Souza ",
			"email":   "Ana@Firm.com.br",
			"company": "Souza Advogados",
		},
		"answers": map[string]string{"q1": "A", "q2": "B", "q3": "D", "q4": "D"},
	}
}

func (s *testServer) submit(t *testing.T) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/diagnostics", validSubmission(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, adminConfig())

	w := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = s.do(http.MethodGet, "/ready", nil, map[string]string{RequestIDHeader: "req-123"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["status"])
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestQuestions(t *testing.T) {
	s := newTestServer(t, adminConfig())

	w := s.do(http.MethodGet, "/api/v1/questions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Questions []domain.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Questions, domain.QuestionCount)
	assert.Len(t, body.Questions[0].Options, 4)
}

func TestSubmit_Success(t *testing.T) {
	s := newTestServer(t, adminConfig())

	w := s.do(http.MethodPost, "/api/v1/diagnostics", validSubmission(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.ID, "diag_"))
	require.NotNil(t, resp.Record)
	assert.Equal(t, "Ana Souza", resp.Record.ClientName)
	assert.Equal(t, "ana@firm.com.br", resp.Record.ClientEmail)
	assert.Equal(t, 3, resp.Record.Devolutiva.Score.Score)
	assert.Equal(t, domain.LevelIntermediate, resp.Record.Devolutiva.Score.Level)
}

func TestSubmit_Invalid(t *testing.T) {
	s := newTestServer(t, adminConfig())

	tests := []struct {
		name    string
		mutate  func(m map[string]interface{})
		wantMsg string
	}{
		{
			name: "name with digits",
			mutate: func(m map[string]interface{}) {
				m["clientInfo"].(map[string]string)["name"] = "Ana 123"
			},
			wantMsg: "Nome contém caracteres inválidos",
		},
		{
			name: "short company and bad email",
			mutate: func(m map[string]interface{}) {
				m["clientInfo"].(map[string]string)["company"] = "X"
				m["clientInfo"].(map[string]string)["email"] = "not-an-email"
			},
			wantMsg: "Email inválido, Nome da empresa deve ter pelo menos 2 caracteres",
		},
		{
			name: "answer out of domain",
			mutate: func(m map[string]interface{}) {
				m["answers"].(map[string]string)["q3"] = "E"
			},
			wantMsg: "Resposta q3 inválida",
		},
		{
			name: "missing answer",
			mutate: func(m map[string]interface{}) {
				delete(m["answers"].(map[string]string), "q4")
			},
			wantMsg: "Resposta q4 inválida",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validSubmission()
			tt.mutate(body)
			w := s.do(http.MethodPost, "/api/v1/diagnostics", body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode(t, w)
			assert.Equal(t, false, resp["success"])
			assert.Contains(t, resp["error"], tt.wantMsg)
		})
	}

	w := s.do(http.MethodPost, "/api/v1/diagnostics", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAndPDF(t *testing.T) {
	s := newTestServer(t, adminConfig())
	id := s.submit(t)

	w := s.do(http.MethodGet, "/api/v1/diagnostics/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode(t, w)["record"].(map[string]interface{})
	assert.Equal(t, id, rec["id"])

	w = s.do(http.MethodGet, "/api/v1/diagnostics/"+id+"/pdf", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "diagnostico-"+id+".pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = s.do(http.MethodGet, "/api/v1/diagnostics/diag_missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, "/api/v1/diagnostics/diag_missing/pdf", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrichAndEmail(t *testing.T) {
	s := newTestServer(t, adminConfig())
	id := s.submit(t)

	w := s.do(http.MethodPost, "/api/v1/diagnostics/"+id+"/enrich", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["enrichedContent"], "Souza Advogados")

	w = s.do(http.MethodPost, "/api/v1/diagnostics/diag_missing/enrich", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/diagnostics/"+id+"/email", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResultPage(t *testing.T) {
	s := newTestServer(t, adminConfig())
	id := s.submit(t)

	w := s.do(http.MethodGet, "/resultado/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Souza Advogados")
	assert.Contains(t, w.Body.String(), "/api/v1/diagnostics/"+id+"/pdf")

	w = s.do(http.MethodGet, "/resultado/diag_missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func login(s *testServer, password string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/admin/auth", map[string]string{"password": password}, nil)
}

func TestAdminAuth_StatusCodes(t *testing.T) {
	s := newTestServer(t, adminConfig())

	assert.Equal(t, http.StatusBadRequest, login(s, "").Code)
	assert.Equal(t, http.StatusUnauthorized, login(s, "errada").Code)

	w := login(s, "segredo-forte")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["sessionToken"], 64)

	unconfigured := newTestServer(t, config.AdminConfig{MaxAttempts: 5, LockoutWindow: time.Minute, SessionTTL: time.Hour})
	assert.Equal(t, http.StatusInternalServerError, login(unconfigured, "qualquer").Code)
}

func TestAdminAuth_LockoutBeforeCredential(t *testing.T) {
	s := newTestServer(t, adminConfig())

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusUnauthorized, login(s, "errada").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, login(s, "segredo-forte").Code)

	*s.clock = s.clock.Add(15*time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, login(s, "segredo-forte").Code)
}

func TestAdminDiagnostics_RequiresSession(t *testing.T) {
	s := newTestServer(t, adminConfig())
	id := s.submit(t)

	w := s.do(http.MethodGet, "/api/admin/diagnostics", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/admin/diagnostics", nil, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := decode(t, login(s, "segredo-forte"))["sessionToken"].(string)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w = s.do(http.MethodGet, "/api/admin/diagnostics", nil, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	records := decode(t, w)["records"].([]interface{})
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].(map[string]interface{})["id"])

	w = s.do(http.MethodGet, "/api/admin/diagnostics?id="+id, nil, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["record"].(map[string]interface{})["id"])

	w = s.do(http.MethodGet, "/api/admin/diagnostics?id=diag_missing", nil, bearer)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/admin/diagnostics", nil, map[string]string{"Cookie": SessionCookie + "=" + token})
	assert.Equal(t, http.StatusOK, w.Code)

	*s.clock = s.clock.Add(24 * time.Hour)
	w = s.do(http.MethodGet, "/api/admin/diagnostics", nil, bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLogout(t *testing.T) {
	s := newTestServer(t, adminConfig())
	token := decode(t, login(s, "segredo-forte"))["sessionToken"].(string)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w := s.do(http.MethodDelete, "/api/admin/auth", nil, bearer)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/admin/diagnostics", nil, bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type stubGate struct {
	err   error
	delay time.Duration
}

func (g stubGate) Login(context.Context, string, string) (string, error) { return "", g.err }
func (g stubGate) Logout(context.Context, string) error                  { return nil }
func (g stubGate) ValidateSession(context.Context, string, string) error { return g.err }
func (g stubGate) FailureDelay() time.Duration                           { return g.delay }

func TestAdminAuth_WrongPasswordWaits(t *testing.T) {
	h := NewAdminAuthHandler(stubGate{err: domain.ErrWrongPassword, delay: 150 * time.Millisecond}, zap.NewNop())
	var slept time.Duration
	h.sleep = func(_ context.Context, d time.Duration) { slept = d }

	router := gin.New()
	router.POST("/auth", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 150*time.Millisecond, slept)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware(), RecoveryMiddleware(zap.NewNop()))
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://app.example.com"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
