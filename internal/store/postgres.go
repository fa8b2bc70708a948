package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
)

// postgresSchema is applied statement by statement.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS diagnostics (
		id           TEXT PRIMARY KEY,
		client_name  TEXT NOT NULL,
		client_email TEXT NOT NULL,
		company_name TEXT NOT NULL,
		answers      CHAR(4) NOT NULL,
		score        SMALLINT NOT NULL CHECK (score BETWEEN 1 AND 5),
		level        TEXT NOT NULL,
		result_url   TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diagnostics_created_at ON diagnostics (created_at DESC)`,
}

// PostgresStore persists records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects, pings and applies the schema.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, domain.WrapError("postgres ping", fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err), true)
	}

	s := &PostgresStore{pool: pool, logger: logger.Named("postgres_store")}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Create inserts rec. A record with the same id is left untouched.
func (s *PostgresStore) Create(ctx context.Context, rec domain.StoredRecord) (string, error) {
	const query = `INSERT INTO diagnostics
		(id, client_name, client_email, company_name, answers, score, level, result_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.ClientName, rec.ClientEmail, rec.CompanyName, rec.Answers.String(),
		rec.Score, string(rec.Level), rec.ResultURL, rec.CreatedAt,
	)
	if err != nil {
		return "", domain.WrapError("postgres insert", err, true)
	}
	return "", nil
}

const pgSelectColumns = `id, client_name, client_email, company_name, answers, score, level, result_url, created_at`

// GetByID returns the record with the given id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.StoredRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgSelectColumns+` FROM diagnostics WHERE id = $1`, id)
	rec, err := scanPGRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, domain.WrapError("postgres get", err, true)
	}
	return rec, nil
}

// List returns all records, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]domain.StoredRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgSelectColumns+` FROM diagnostics ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, domain.WrapError("postgres list", err, true)
	}
	defer rows.Close()

	out := make([]domain.StoredRecord, 0)
	for rows.Next() {
		rec, err := scanPGRecord(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable row", zap.Error(err))
			continue
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError("postgres list", err, true)
	}
	return out, nil
}

// Ping checks the pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPGRecord(row pgx.Row) (*domain.StoredRecord, error) {
	var (
		rec     domain.StoredRecord
		answers string
		level   string
		score   int16
	)
	if err := row.Scan(&rec.ID, &rec.ClientName, &rec.ClientEmail, &rec.CompanyName,
		&answers, &score, &level, &rec.ResultURL, &rec.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := domain.AnswersFromString(answers)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.Answers = parsed
	rec.Score = int(score)
	rec.Level = domain.Level(level)
	return &rec, nil
}
