package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(attemptID string, submitted time.Time) *AttemptRecord {
	return &AttemptRecord{
		AttemptID:     attemptID,
		TestID:        "jee-main-mock-1",
		Title:         "JEE Main Mock Test 1",
		Backend:       "mock",
		Reason:        "manual",
		Score:         12,
		MaxScore:      32,
		Correct:       4,
		Incorrect:     4,
		Unattempted:   0,
		Violations:    1,
		DurationSecs:  1200,
		RemainingSecs: 300,
		StartedAt:     submitted.Add(-15 * time.Minute),
		SubmittedAt:   submitted,
	}
}

func TestSaveAndGetAttempt(t *testing.T) {
	repo := openTestStore(t).AttemptRepo()
	ctx := context.Background()

	got, err := repo.GetAttempt(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Date(2026, 3, 1, 10, 30, 0, 123, time.UTC)
	rec := sampleRecord("a1", now)
	require.NoError(t, repo.SaveAttempt(ctx, rec))
	assert.NotZero(t, rec.ID)

	got, err = repo.GetAttempt(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *rec, *got)
}

func TestSaveAttemptUpserts(t *testing.T) {
	repo := openTestStore(t).AttemptRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	first := sampleRecord("a1", now)
	require.NoError(t, repo.SaveAttempt(ctx, first))

	second := sampleRecord("a1", now)
	second.Score = 20
	second.Reason = "time_up"
	require.NoError(t, repo.SaveAttempt(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	all, err := repo.ListAttempts(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 20.0, all[0].Score)
	assert.Equal(t, "time_up", all[0].Reason)
}

func TestListAttempts(t *testing.T) {
	repo := openTestStore(t).AttemptRepo()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"a1", "a2", "a3", "a4"} {
		rec := sampleRecord(id, base.Add(time.Duration(i)*time.Hour))
		if id == "a4" {
			rec.TestID = "quick-quiz"
		}
		require.NoError(t, repo.SaveAttempt(ctx, rec))
	}

	tests := []struct {
		name string
		opts QueryOpts
		want []string
	}{
		{"all newest first", QueryOpts{}, []string{"a4", "a3", "a2", "a1"}},
		{"limit", QueryOpts{Limit: 2}, []string{"a4", "a3"}},
		{"by test", QueryOpts{TestID: "quick-quiz"}, []string{"a4"}},
		{"from", QueryOpts{From: base.Add(90 * time.Minute)}, []string{"a4", "a3"}},
		{"range", QueryOpts{From: base.Add(time.Hour), To: base.Add(2 * time.Hour)}, []string{"a3", "a2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := repo.ListAttempts(ctx, tt.opts)
			require.NoError(t, err)
			var ids []string
			for _, r := range recs {
				ids = append(ids, r.AttemptID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestAppendAndListEvents(t *testing.T) {
	repo := openTestStore(t).AttemptRepo()
	ctx := context.Background()

	seq1, err := repo.AppendEvent(ctx, AttemptEvent{AttemptID: "a1", Kind: EventStarted})
	require.NoError(t, err)
	seq2, err := repo.AppendEvent(ctx, AttemptEvent{AttemptID: "a2", Kind: EventStarted})
	require.NoError(t, err)
	seq3, err := repo.AppendEvent(ctx, AttemptEvent{
		AttemptID: "a1",
		Kind:      EventViolation,
		Data:      map[string]any{"reason": "Screenshot detected", "count": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, []int64{seq1, seq2, seq3})

	events, err := repo.Events(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventStarted, events[0].Kind)
	assert.Equal(t, EventViolation, events[1].Kind)
	assert.Equal(t, "Screenshot detected", events[1].Data["reason"])
	assert.Equal(t, float64(1), events[1].Data["count"])
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestReset(t *testing.T) {
	repo := openTestStore(t).AttemptRepo()
	ctx := context.Background()

	require.NoError(t, repo.SaveAttempt(ctx, sampleRecord("a1", time.Now())))
	_, err := repo.AppendEvent(ctx, AttemptEvent{AttemptID: "a1", Kind: EventSubmitted})
	require.NoError(t, err)

	require.NoError(t, repo.Reset(ctx))

	recs, err := repo.ListAttempts(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, recs)
	events, err := repo.Events(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, events)
}
