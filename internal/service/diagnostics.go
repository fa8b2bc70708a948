package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maturity-diagnostic/internal/ai"
	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/internal/notify"
	"github.com/maturity-diagnostic/internal/render"
	"github.com/maturity-diagnostic/internal/store"
	"github.com/maturity-diagnostic/pkg/sanitizer"
	"go.uber.org/zap"
)

// Diagnostics orchestrates submission, retrieval and the collaborators
// (record store, renderer, e-mail, enrichment).
//
// Collaborator failures are logged and absorbed: they never change the
// record returned to a submitter.
type Diagnostics struct {
	assembler *Assembler
	store     store.RecordStore
	renderer  render.Renderer
	sender    notify.Sender
	enricher  ai.Client
	app       config.AppConfig
	cache     *recordCache
	dispatch  *dispatcher
	checks    []readinessCheck
	logger    *zap.Logger
}

// NewDiagnostics creates a new Diagnostics service with all dependencies.
func NewDiagnostics(
	assembler *Assembler,
	recordStore store.RecordStore,
	renderer render.Renderer,
	sender notify.Sender,
	enricher ai.Client,
	app config.AppConfig,
	dispatchCfg config.DispatchConfig,
	logger *zap.Logger,
) *Diagnostics {
	logger = logger.Named("diagnostics")
	return &Diagnostics{
		assembler: assembler,
		store:     recordStore,
		renderer:  renderer,
		sender:    sender,
		enricher:  enricher,
		app:       app,
		cache:     newRecordCache(DefaultCacheSize),
		dispatch:  newDispatcher(dispatchCfg.Concurrency, dispatchCfg.Timeout, logger.Named("dispatch")),
		logger:    logger,
	}
}

// Submit assembles a record and returns it as soon as it is built.
// Persistence and the result e-mail are dispatched in the background and
// are never joined by the caller.
func (s *Diagnostics) Submit(ctx context.Context, info domain.ClientInfo, answers domain.DiagnosticAnswers) (*domain.DiagnosticRecord, error) {
	if err := answers.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	rec := s.assembler.Assemble(info, answers)
	s.cache.put(rec)

	s.logger.Info("diagnostic submitted",
		zap.String("id", rec.ID),
		zap.String("email", sanitizer.MaskEmail(rec.ClientEmail)),
		zap.String("answers", answers.String()),
		zap.Int("score", rec.Devolutiva.Score.Score),
		zap.String("level", string(rec.Devolutiva.Score.Level)),
		zap.Duration("duration", time.Since(startTime)),
	)

	detached := *rec
	s.dispatch.Go("deliver "+rec.ID, func(ctx context.Context) {
		s.deliver(ctx, &detached)
	})

	return rec, nil
}

// deliver persists the record, then renders and e-mails it. Each step
// runs regardless of the previous one's outcome.
func (s *Diagnostics) deliver(ctx context.Context, rec *domain.DiagnosticRecord) {
	logger := s.logger.With(zap.String("id", rec.ID))

	externalID, err := s.store.Create(ctx, store.FromRecord(rec, s.app.ResultURL(rec.ID)))
	if err != nil {
		logger.Error("persisting diagnostic failed", zap.Error(err), zap.Bool("retryable", domain.IsRetryable(err)))
	} else {
		logger.Debug("diagnostic persisted", zap.String("external_id", externalID))
	}

	if err := s.send(ctx, rec); err != nil {
		logger.Error("result e-mail failed", zap.Error(err), zap.Bool("retryable", domain.IsRetryable(err)))
	}
}

// send renders the PDF and e-mails the record. A render failure sends the
// e-mail without attachment.
func (s *Diagnostics) send(ctx context.Context, rec *domain.DiagnosticRecord) error {
	pdf, err := s.renderer.Render(rec)
	if err != nil {
		s.logger.Warn("pdf render failed, sending without attachment",
			zap.String("id", rec.ID), zap.Error(err))
		pdf = nil
	}
	return s.sender.SendResult(ctx, rec, pdf)
}

// Get returns a record by id from the cache or, failing that, from the
// record store, rebuilding the full record from the stored answers.
func (s *Diagnostics) Get(ctx context.Context, id string) (*domain.DiagnosticRecord, error) {
	if rec, ok := s.cache.get(id); ok {
		return rec, nil
	}

	stored, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, domain.WrapError("get diagnostic", err, domain.IsRetryable(err))
	}

	rec := s.assembler.Rebuild(*stored)
	if stored.Score != rec.Devolutiva.Score.Score {
		s.logger.Warn("stored score differs from recomputed score",
			zap.String("id", id),
			zap.Int("stored", stored.Score),
			zap.Int("computed", rec.Devolutiva.Score.Score),
		)
	}
	s.cache.put(rec)
	return rec, nil
}

// List returns the cached and stored records merged by id, newest first.
// A store failure degrades to the cached records.
func (s *Diagnostics) List(ctx context.Context) []domain.StoredRecord {
	merged := make(map[string]domain.StoredRecord)
	for _, rec := range s.cache.all() {
		merged[rec.ID] = store.FromRecord(&rec, s.app.ResultURL(rec.ID))
	}

	stored, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn("listing stored diagnostics failed, using cache only",
			zap.Error(err), zap.Int("cached", len(merged)))
	}
	for _, rec := range stored {
		merged[rec.ID] = rec
	}

	out := make([]domain.StoredRecord, 0, len(merged))
	for _, rec := range merged {
		out = append(out, rec)
	}
	store.SortNewestFirst(out)
	return out
}

// Enrich asks the enrichment provider for a narrative about a record.
// Any provider failure yields "" and no error; only an unknown id is an
// error. A successful text is kept on the cached record.
func (s *Diagnostics) Enrich(ctx context.Context, id string) (string, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if rec.Devolutiva.EnrichedContent != "" {
		return rec.Devolutiva.EnrichedContent, nil
	}

	text, err := s.enricher.Enrich(ctx, ai.InputFromRecord(rec))
	if err != nil {
		s.logger.Warn("enrichment failed", zap.String("id", id), zap.Error(err))
		return "", nil
	}

	if text != "" {
		enriched := rec.WithEnrichment(text)
		s.cache.put(&enriched)
	}
	return text, nil
}

// ResendEmail renders and sends the result e-mail of a record again.
func (s *Diagnostics) ResendEmail(ctx context.Context, id string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.send(ctx, rec); err != nil {
		return domain.WrapError("resend e-mail", err, domain.IsRetryable(err))
	}
	return nil
}

// RenderPDF renders the PDF of a record. An unknown id yields
// domain.ErrRecordNotFound; a renderer failure wraps domain.ErrRender.
func (s *Diagnostics) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.Render(rec)
	if err != nil {
		if !errors.Is(err, domain.ErrRender) {
			err = fmt.Errorf("%w: %v", domain.ErrRender, err)
		}
		return nil, err
	}
	return pdf, nil
}

// ComponentStatus is the readiness of one collaborator.
type ComponentStatus struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Required bool   `json:"required"`
	Error    string `json:"error,omitempty"`
}

type readinessCheck struct {
	name     string
	required bool
	fn       func(context.Context) error
}

// AddReadinessCheck registers another component reported by Readiness.
func (s *Diagnostics) AddReadinessCheck(name string, required bool, fn func(context.Context) error) {
	s.checks = append(s.checks, readinessCheck{name: name, required: required, fn: fn})
}

// Readiness checks the record store (required), the enrichment provider
// (optional) and any registered component.
func (s *Diagnostics) Readiness(ctx context.Context) []ComponentStatus {
	checks := append([]readinessCheck{
		{name: "store", required: true, fn: s.store.Ping},
		{name: "enrichment", required: false, fn: s.enricher.HealthCheck},
	}, s.checks...)

	out := make([]ComponentStatus, 0, len(checks))
	for _, c := range checks {
		st := ComponentStatus{Name: c.name, Healthy: true, Required: c.required}
		if err := c.fn(ctx); err != nil {
			st.Healthy = false
			st.Error = err.Error()
		}
		out = append(out, st)
	}
	return out
}

// Drain waits for in-flight background deliveries.
func (s *Diagnostics) Drain(ctx context.Context) error {
	return s.dispatch.Drain(ctx)
}
