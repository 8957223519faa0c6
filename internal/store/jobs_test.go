package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axio-hub/axio-go/internal/models"
	"github.com/axio-hub/axio-go/internal/realtime"
)

type recordingToaster struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *recordingToaster) Toast(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

func (r *recordingToaster) all() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func job(id string, status models.JobStatus) models.Job {
	return models.Job{ID: id, Provider: models.ProviderFile, Status: status, TotalFiles: 10, ProcessedFiles: 10}
}

func TestJobStoreBound(t *testing.T) {
	s := NewJobStore(ActiveJobLimit, nil, discardLogger())

	for i := 1; i <= 8; i++ {
		s.ApplyInsert(job(fmt.Sprintf("j%d", i), models.JobPending))
	}

	jobs := s.Jobs()
	require.Len(t, jobs, ActiveJobLimit)
	// Most recent by arrival order.
	for i, want := range []string{"j8", "j7", "j6", "j5", "j4"} {
		assert.Equal(t, want, jobs[i].ID)
	}
}

func TestCompletionToastFiresOncePerEdge(t *testing.T) {
	toaster := &recordingToaster{}
	s := NewJobStore(JobHistoryLimit, toaster, discardLogger())

	s.ApplyInsert(job("j1", models.JobProcessing))
	s.ApplyUpdate(job("j1", models.JobCompleted))
	// Out-of-order delivery repeats the terminal update.
	s.ApplyUpdate(job("j1", models.JobCompleted))

	toasts := toaster.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Ingestion complete", toasts[0].Title)
	assert.Equal(t, VariantDefault, toasts[0].Variant)
}

func TestFailureToastIsDestructive(t *testing.T) {
	toaster := &recordingToaster{}
	s := NewJobStore(JobHistoryLimit, toaster, discardLogger())

	s.ApplyInsert(job("j1", models.JobProcessing))
	failed := job("j1", models.JobFailed)
	msg := "crawl blocked by robots.txt"
	failed.ErrorMessage = &msg
	s.ApplyUpdate(failed)

	toasts := toaster.all()
	require.Len(t, toasts, 1)
	assert.Equal(t, VariantDestructive, toasts[0].Variant)
	assert.Equal(t, msg, toasts[0].Description)
}

func TestFirstSeenTerminalDoesNotToast(t *testing.T) {
	toaster := &recordingToaster{}
	s := NewJobStore(JobHistoryLimit, toaster, discardLogger())

	// A job may arrive already terminal with no stored old state.
	s.ApplyUpdate(job("j1", models.JobCompleted))
	assert.Empty(t, toaster.all())

	// And a job may skip pending entirely; completing it later still toasts.
	s.ApplyUpdate(job("j2", models.JobProcessing))
	s.ApplyUpdate(job("j2", models.JobCompleted))
	assert.Len(t, toaster.all(), 1)
}

func TestActiveFiltersTerminalAndDismissed(t *testing.T) {
	s := NewJobStore(JobHistoryLimit, nil, discardLogger())

	s.ApplyInsert(job("pending", models.JobPending))
	s.ApplyInsert(job("processing", models.JobProcessing))
	s.ApplyInsert(job("done", models.JobCompleted))
	s.ApplyInsert(job("failed", models.JobFailed))

	active := s.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "processing", active[0].ID)
	assert.Equal(t, "pending", active[1].ID)
}

func TestActiveViewCapped(t *testing.T) {
	s := NewJobStore(JobHistoryLimit, nil, discardLogger())

	// More running jobs than the active view shows; the history bound still
	// holds them all.
	for i := 1; i <= ActiveJobLimit+3; i++ {
		s.ApplyInsert(job(fmt.Sprintf("j%d", i), models.JobProcessing))
	}

	active := s.Active()
	require.Len(t, active, ActiveJobLimit)
	assert.Equal(t, "j8", active[0].ID, "cap keeps the most recent jobs")
	assert.Len(t, s.Jobs(), ActiveJobLimit+3)
}

func TestDismissOnlyTerminalJobs(t *testing.T) {
	s := NewJobStore(JobHistoryLimit, nil, discardLogger())
	s.ApplyInsert(job("running", models.JobProcessing))
	s.ApplyInsert(job("done", models.JobCompleted))

	assert.False(t, s.Dismiss("running"))
	assert.True(t, s.Dismiss("done"))
	assert.False(t, s.Dismiss("missing"))

	got, ok := s.Get("done")
	require.True(t, ok)
	assert.True(t, got.Dismissed)
}

func TestReplacePreservesDismissed(t *testing.T) {
	s := NewJobStore(JobHistoryLimit, nil, discardLogger())
	s.ApplyInsert(job("j1", models.JobCompleted))
	require.True(t, s.Dismiss("j1"))

	// A poll refetch returns the same job without any dismissed notion.
	s.Replace([]models.Job{job("j1", models.JobCompleted), job("j2", models.JobPending)})

	got, ok := s.Get("j1")
	require.True(t, ok)
	assert.True(t, got.Dismissed, "dismissal must survive wholesale refetch")
}

func TestApplyChangeDispatch(t *testing.T) {
	toaster := &recordingToaster{}
	s := NewJobStore(JobHistoryLimit, toaster, discardLogger())

	record := func(j models.Job) json.RawMessage {
		b, err := json.Marshal(j)
		require.NoError(t, err)
		return b
	}

	s.ApplyChange(realtime.ChangeEvent{Type: realtime.EventInsert, Record: record(job("j1", models.JobProcessing))})
	require.Len(t, s.Jobs(), 1)

	s.ApplyChange(realtime.ChangeEvent{Type: realtime.EventUpdate, Record: record(job("j1", models.JobCompleted))})
	assert.Len(t, toaster.all(), 1)

	s.ApplyChange(realtime.ChangeEvent{Type: realtime.EventDelete, OldRecord: json.RawMessage(`{"id":"j1"}`)})
	assert.Empty(t, s.Jobs())

	// Malformed payloads are dropped, not fatal.
	s.ApplyChange(realtime.ChangeEvent{Type: realtime.EventInsert, Record: json.RawMessage(`{bogus`)})
	assert.Empty(t, s.Jobs())
}

func TestDuplicateInsertIsIdempotent(t *testing.T) {
	s := NewJobStore(JobHistoryLimit, nil, discardLogger())
	s.ApplyInsert(job("j1", models.JobPending))
	s.ApplyInsert(job("j1", models.JobProcessing)) // poll/push race replays the row
	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, models.JobProcessing, jobs[0].Status)
}
