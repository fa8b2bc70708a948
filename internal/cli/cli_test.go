package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/maturity-diagnostic/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantScore string
		wantLevel string
	}{
		{"separate args", []string{"score", "D", "D", "D", "D"}, "Score:   5/5", "advanced"},
		{"single word", []string{"score", "aadd"}, "Score:   3/5", "intermediate"},
		{"low score", []string{"score", "AACC"}, "Score:   2/5", "beginner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantScore)
			assert.Contains(t, out, "("+tt.wantLevel+")")
			assert.Contains(t, out, "Strengths")
			assert.Contains(t, out, "q4 (")
		})
	}
}

func TestScoreCommand_InvalidAnswers(t *testing.T) {
	_, err := execute(t, "score", "A", "B", "E", "D")
	assert.Error(t, err)

	_, err = execute(t, "score", "ABC")
	assert.Error(t, err)
}

func TestPlanCommand(t *testing.T) {
	out, err := execute(t, "plan", "2", "b")
	require.NoError(t, err)

	plan, ok := content.Default().ActionPlan(2, "B")
	require.True(t, ok)
	assert.Contains(t, out, "q2 = B")
	assert.Contains(t, out, plan.NextStep)
	assert.Contains(t, out, "Ferramentas Sugeridas")

	_, err = execute(t, "plan", "5", "A")
	assert.Error(t, err)
	_, err = execute(t, "plan", "1", "X")
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")

	out, err := execute(t, "render",
		"--answers", "ABCD",
		"--name", "Ana Souza",
		"--email", "ana@firm.com.br",
		"--company", "Souza Advogados",
		"-o", path,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = execute(t, "render", "--answers", "ABCD", "--name", "Ana")
	assert.Error(t, err, "company is required")
}

func TestMigrateCommand_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "diag.db")
	t.Setenv("STORE_BACKEND", "memory")

	out, err := execute(t, "migrate", "--backend", "sqlite", "--sqlite-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema ready for sqlite backend")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)

	out, err = execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, `Backend "memory" has no schema to migrate`)
}
