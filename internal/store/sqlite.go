package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maturity-diagnostic/internal/domain"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteStore persists records in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies the schema. ":memory:" gives a private in-memory database.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// every pooled connection to ":memory:" would otherwise see its own database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the remaining pragmas wait on locks
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		logger: logger.Named("sqlite_store"),
	}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// execWithRetry retries a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Create inserts rec. A record with the same id is left untouched.
func (s *SQLiteStore) Create(ctx context.Context, rec domain.StoredRecord) (string, error) {
	const query = `INSERT OR IGNORE INTO diagnostics
		(id, client_name, client_email, company_name, answers, score, level, result_url, created_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.ClientName, rec.ClientEmail, rec.CompanyName, rec.Answers.String(),
		rec.Score, string(rec.Level), rec.ResultURL, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", domain.WrapError("sqlite insert", err, false)
	}
	return "", nil
}

const selectColumns = `id, client_name, client_email, company_name, answers, score, level, result_url, created_at_ns`

// GetByID returns the record with the given id.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*domain.StoredRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM diagnostics WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, domain.WrapError("sqlite get", err, false)
	}
	return rec, nil
}

// List returns all records, newest first. Rows with unparseable answers are
// skipped.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM diagnostics ORDER BY created_at_ns DESC, id DESC`)
	if err != nil {
		return nil, domain.WrapError("sqlite list", err, false)
	}
	defer rows.Close()

	out := make([]domain.StoredRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable row", zap.Error(err))
			continue
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError("sqlite list", err, false)
	}
	return out, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.StoredRecord, error) {
	var (
		rec       domain.StoredRecord
		answers   string
		level     string
		createdNS int64
	)
	if err := row.Scan(&rec.ID, &rec.ClientName, &rec.ClientEmail, &rec.CompanyName,
		&answers, &rec.Score, &level, &rec.ResultURL, &createdNS); err != nil {
		return nil, err
	}

	parsed, err := domain.AnswersFromString(answers)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.Answers = parsed
	rec.Level = domain.Level(level)
	rec.CreatedAt = time.Unix(0, createdNS).UTC()
	return &rec, nil
}
