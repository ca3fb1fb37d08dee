package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepzone/internal/config"
	"github.com/abhisek/prepzone/internal/exam"
	"github.com/abhisek/prepzone/internal/store"
)

func TestPrintTests(t *testing.T) {
	var buf bytes.Buffer
	printTests(&buf, []exam.TestInfo{{
		ID:              "jee-1",
		Title:           "JEE Main Mock",
		DurationMinutes: 180,
		QuestionCount:   75,
		TotalMarks:      300,
		Sections:        []string{"Physics", "Chemistry"},
	}})

	out := buf.String()
	assert.Contains(t, out, "JEE Main Mock")
	assert.Contains(t, out, "75 questions, 180 min, 300 marks")
	assert.Contains(t, out, "sections: Physics, Chemistry")
}

func TestPrintTests_Empty(t *testing.T) {
	var buf bytes.Buffer
	printTests(&buf, nil)
	assert.Equal(t, "No tests available.\n", buf.String())
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, []store.AttemptRecord{{
		Title:       "Quick Quiz",
		Score:       7,
		MaxScore:    12,
		Reason:      "time_up",
		Violations:  1,
		SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}})

	out := buf.String()
	assert.Contains(t, out, "Quick Quiz")
	assert.Contains(t, out, "time_up")
	assert.Contains(t, out, "1 warnings")
}

func TestResolveDBPath_FromConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "h.db")
	cfg := config.Default()
	cfg.Store.DBPath = p

	got, err := resolveDBPath(&cfg)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.DirExists(t, filepath.Dir(p))
}

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = ""
	var errOut bytes.Buffer

	_, closeLog := newLogger(&cfg, &errOut)
	closeLog()
	assert.Empty(t, errOut.String())
}
