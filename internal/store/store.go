// Package store persists flat diagnostic records. Every backend keeps the
// core identity, the answers and the derived score; the full record is
// rebuilt from the answers by the service layer on read.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
)

// RecordStore is the record store collaborator.
type RecordStore interface {
	// Create persists a record and returns the backend's own id, if it has
	// one distinct from the record id.
	Create(ctx context.Context, rec domain.StoredRecord) (string, error)

	// GetByID returns domain.ErrRecordNotFound when no record matches.
	GetByID(ctx context.Context, id string) (*domain.StoredRecord, error)

	// List returns every record, newest first.
	List(ctx context.Context) ([]domain.StoredRecord, error)

	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error

	Close() error
}

// Migrator is implemented by backends with a schema to create.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// New opens the backend selected by cfg.
func New(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (RecordStore, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	case config.BackendNotion:
		return NewNotionStore(cfg.Notion, cfg.MaxRetries, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfig, cfg.Backend)
	}
}

// FromRecord flattens a diagnostic record for persistence.
func FromRecord(rec *domain.DiagnosticRecord, resultURL string) domain.StoredRecord {
	return domain.StoredRecord{
		ID:          rec.ID,
		ClientName:  rec.ClientName,
		ClientEmail: rec.ClientEmail,
		CompanyName: rec.CompanyName,
		Answers:     rec.Answers,
		Score:       rec.Devolutiva.Score.Score,
		Level:       rec.Devolutiva.Score.Level,
		ResultURL:   resultURL,
		CreatedAt:   rec.CreatedAt,
	}
}

// IDFromResultURL recovers the core id from a result link ending in
// /resultado/<id>.
func IDFromResultURL(resultURL string) (string, bool) {
	const marker = "/resultado/"
	i := strings.LastIndex(resultURL, marker)
	if i < 0 {
		return "", false
	}
	id := resultURL[i+len(marker):]
	if id == "" {
		return "", false
	}
	return id, true
}

// SortNewestFirst orders records by creation time, newest first. Ties are
// broken by id so the order is stable.
func SortNewestFirst(records []domain.StoredRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
