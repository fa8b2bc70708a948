// Package notify delivers the result e-mail of a diagnostic through the
// Resend REST API.
package notify

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/internal/httpclient"
	"github.com/maturity-diagnostic/internal/render"
	"github.com/maturity-diagnostic/pkg/sanitizer"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers result e-mails. A failure never affects the diagnostic
// itself; callers log and move on.
type Sender interface {
	SendResult(ctx context.Context, rec *domain.DiagnosticRecord, pdf []byte) error
}

// NopSender is used when e-mail is disabled.
type NopSender struct{}

// SendResult does nothing.
func (NopSender) SendResult(ctx context.Context, rec *domain.DiagnosticRecord, pdf []byte) error {
	return nil
}

// New returns a ResendSender, or a NopSender when e-mail is disabled.
func New(cfg config.EmailConfig, app config.AppConfig, catalog *content.Catalog, logger *zap.Logger) (Sender, error) {
	if !cfg.Enabled {
		logger.Info("result e-mail disabled")
		return NopSender{}, nil
	}
	return NewResendSender(cfg, app, catalog, logger)
}

// ResendSender sends result e-mails through Resend.
type ResendSender struct {
	client  *httpclient.Client
	baseURL string
	from    string
	app     config.AppConfig
	catalog *content.Catalog
	tmpl    *template.Template
	logger  *zap.Logger
}

type attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type sendRequest struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// NewResendSender creates a ResendSender.
func NewResendSender(cfg config.EmailConfig, app config.AppConfig, catalog *content.Catalog, logger *zap.Logger) (*ResendSender, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/result_email.html")
	if err != nil {
		return nil, fmt.Errorf("parse e-mail template: %w", err)
	}

	return &ResendSender{
		client: httpclient.New(httpclient.Config{
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Headers:    map[string]string{"Authorization": "Bearer " + cfg.APIKey},
		}, logger.Named("resend_http")),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		from:    cfg.FromEmail,
		app:     app,
		catalog: catalog,
		tmpl:    tmpl,
		logger:  logger.Named("resend_sender"),
	}, nil
}

// Subject returns the e-mail subject for a record.
func Subject(rec *domain.DiagnosticRecord) string {
	return "Seu Diagnóstico de Maturidade Tecnológica - " + rec.CompanyName
}

// AttachmentName returns the file name of the attached PDF.
func AttachmentName(id string) string {
	return "diagnostico-" + id + ".pdf"
}

// SendResult e-mails the result link, attaching pdf when non-empty.
func (s *ResendSender) SendResult(ctx context.Context, rec *domain.DiagnosticRecord, pdf []byte) error {
	body, err := s.RenderBody(rec)
	if err != nil {
		return err
	}

	req := sendRequest{
		From:    s.from,
		To:      []string{rec.ClientEmail},
		Subject: Subject(rec),
		HTML:    body,
	}
	if len(pdf) > 0 {
		req.Attachments = []attachment{{
			Filename: AttachmentName(rec.ID),
			Content:  base64.StdEncoding.EncodeToString(pdf),
		}}
	}

	var resp sendResponse
	if err := s.client.DoJSON(ctx, "resend send", http.MethodPost, s.baseURL+"/emails", req, &resp); err != nil {
		return err
	}

	s.logger.Info("result e-mail sent",
		zap.String("id", rec.ID),
		zap.String("email_id", resp.ID),
		zap.String("to", sanitizer.MaskEmail(rec.ClientEmail)),
		zap.Bool("attachment", len(pdf) > 0),
	)
	return nil
}

// RenderBody renders the HTML body of the result e-mail.
func (s *ResendSender) RenderBody(rec *domain.DiagnosticRecord) (string, error) {
	score := rec.Devolutiva.Score
	data := struct {
		ClientName  string
		CompanyName string
		Score       int
		ScoreColor  string
		LevelLabel  string
		ResultURL   string
	}{
		ClientName:  rec.ClientName,
		CompanyName: rec.CompanyName,
		Score:       score.Score,
		ScoreColor:  render.ScoreColor(score.Score),
		LevelLabel:  s.catalog.LevelLabel(score.Level),
		ResultURL:   s.app.ResultURL(rec.ID),
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render e-mail body: %w", err)
	}
	return buf.String(), nil
}
