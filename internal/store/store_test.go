package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/maturity-diagnostic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRecord(t *testing.T, id, answers string, created time.Time) domain.StoredRecord {
	t.Helper()
	a, err := domain.AnswersFromString(answers)
	require.NoError(t, err)
	return domain.StoredRecord{
		ID:          id,
		ClientName:  "Ana Souza",
		ClientEmail: "ana@firm.com.br",
		CompanyName: "Souza Advogados",
		Answers:     a,
		Score:       3,
		Level:       domain.LevelIntermediate,
		ResultURL:   "https://diag.example.com/resultado/" + id,
		CreatedAt:   created,
	}
}

// exerciseStore runs the shared RecordStore contract.
func exerciseStore(t *testing.T, s RecordStore) {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Ping(ctx))

	_, err := s.GetByID(ctx, "diag_missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for i := 0; i < 3; i++ {
		_, err := s.Create(ctx, sampleRecord(t, fmt.Sprintf("diag_%d", i), "ABCD", base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	got, err := s.GetByID(ctx, "diag_1")
	require.NoError(t, err)
	assert.Equal(t, "diag_1", got.ID)
	assert.Equal(t, "ABCD", got.Answers.String())
	assert.Equal(t, domain.LevelIntermediate, got.Level)
	assert.Equal(t, 3, got.Score)
	assert.True(t, got.CreatedAt.Equal(base.Add(time.Minute)))

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "diag_2", list[0].ID)
	assert.Equal(t, "diag_1", list[1].ID)
	assert.Equal(t, "diag_0", list[2].ID)

	// duplicate ids keep the first write
	dup := sampleRecord(t, "diag_0", "DDDD", base)
	_, err = s.Create(ctx, dup)
	require.NoError(t, err)
	got, err = s.GetByID(ctx, "diag_0")
	require.NoError(t, err)
	assert.Equal(t, "ABCD", got.Answers.String())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStore_FileAndReopen(t *testing.T) {
	path := t.TempDir() + "/nested/diag.db"
	ctx := context.Background()

	s, err := NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	_, err = s.Create(ctx, sampleRecord(t, "diag_keep", "DCBA", time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	// migrating twice is harmless
	require.NoError(t, s.Migrate(ctx))

	got, err := s.GetByID(ctx, "diag_keep")
	require.NoError(t, err)
	assert.Equal(t, "DCBA", got.Answers.String())
}

func TestSQLiteStore_SkipsCorruptRows(t *testing.T) {
	s, err := NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Create(ctx, sampleRecord(t, "diag_ok", "ABCD", time.Now()))
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO diagnostics
		(id, client_name, client_email, company_name, answers, score, level, result_url, created_at_ns)
		VALUES ('diag_bad', 'x', 'x@y.z', 'x', 'ABXZ', 1, 'beginner', '', 0)`)
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "diag_ok", list[0].ID)
}

func TestIDFromResultURL(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"https://diag.example.com/resultado/diag_abc", "diag_abc", true},
		{"http://localhost:3000/resultado/diag_1-2", "diag_1-2", true},
		{"https://diag.example.com/resultado/", "", false},
		{"https://diag.example.com/other/diag_abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		id, ok := IDFromResultURL(tt.url)
		assert.Equal(t, tt.wantOK, ok, tt.url)
		assert.Equal(t, tt.wantID, id, tt.url)
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.StoredRecord{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(time.Hour)},
		{ID: "b", CreatedAt: base},
	}
	SortNewestFirst(records)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "a", records[2].ID)
}

func TestFromRecord(t *testing.T) {
	answers, _ := domain.AnswersFromString("DDDD")
	rec := &domain.DiagnosticRecord{
		ID:          "diag_x",
		ClientName:  "Ana",
		ClientEmail: "ana@x.com",
		CompanyName: "X",
		Answers:     answers,
		Devolutiva: domain.Devolutiva{
			Score: domain.ScoreResult{Score: 5, Level: domain.LevelAdvanced, TotalPoints: 16},
		},
		CreatedAt: time.Unix(100, 0),
	}

	got := FromRecord(rec, "https://x/resultado/diag_x")
	assert.Equal(t, 5, got.Score)
	assert.Equal(t, domain.LevelAdvanced, got.Level)
	assert.Equal(t, "https://x/resultado/diag_x", got.ResultURL)
	assert.Equal(t, answers, got.Answers)
}
