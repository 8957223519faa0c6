package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/axio-hub/axio-go/internal/models"
	"github.com/axio-hub/axio-go/internal/realtime"
)

// Feed bounds for the two job views the dashboard shows.
const (
	ActiveJobLimit  = 5
	JobHistoryLimit = 20
)

// JobStore is the in-memory cache of ingestion jobs, most recent first,
// bounded to a fixed size. It is updated either by wholesale refetch or by
// applying server-pushed change events; replace-by-id reconciliation makes
// the two paths idempotent when they race during a connection hand-off.
type JobStore struct {
	mu      sync.RWMutex
	jobs    []models.Job
	limit   int
	toaster Toaster
	logger  *slog.Logger
}

// NewJobStore creates a job store bounded to limit entries.
func NewJobStore(limit int, toaster Toaster, logger *slog.Logger) *JobStore {
	if limit <= 0 {
		limit = JobHistoryLimit
	}
	if toaster == nil {
		toaster = NopToaster
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobStore{limit: limit, toaster: toaster, logger: logger}
}

// LoadInitial fetches the authoritative list and replaces local state
// wholesale. A response that resolves after ctx is cancelled is discarded.
func (s *JobStore) LoadInitial(ctx context.Context, fetch func(context.Context) ([]models.Job, error)) error {
	jobs, err := fetch(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.Replace(jobs)
	return nil
}

// Replace installs the authoritative list, preserving client-only dismissed
// flags across the refetch.
func (s *JobStore) Replace(jobs []models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dismissed := make(map[string]bool, len(s.jobs))
	for _, j := range s.jobs {
		if j.Dismissed {
			dismissed[j.ID] = true
		}
	}

	s.jobs = s.jobs[:0]
	for _, j := range jobs {
		if len(s.jobs) == s.limit {
			break
		}
		j.Dismissed = dismissed[j.ID]
		s.jobs = append(s.jobs, j)
	}
}

// ApplyInsert prepends a new job and truncates to the bound.
func (s *JobStore) ApplyInsert(job models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(job)
}

func (s *JobStore) insertLocked(job models.Job) {
	// Replace-by-id keeps a duplicate INSERT idempotent.
	for i, existing := range s.jobs {
		if existing.ID == job.ID {
			job.Dismissed = existing.Dismissed
			s.jobs[i] = job
			return
		}
	}
	s.jobs = append([]models.Job{job}, s.jobs...)
	if len(s.jobs) > s.limit {
		s.jobs = s.jobs[:s.limit]
	}
}

// ApplyUpdate replaces the matching job in place. Crossing into a terminal
// state fires the completion toast exactly once per transition edge: the
// guard compares the stored status against the incoming one, so a duplicate
// terminal UPDATE is silent, and a job first seen already terminal (no
// stored old state) never fires.
func (s *JobStore) ApplyUpdate(job models.Job) {
	s.mu.Lock()
	var old *models.Job
	for i := range s.jobs {
		if s.jobs[i].ID == job.ID {
			old = &s.jobs[i]
			break
		}
	}

	var fire bool
	if old == nil {
		s.insertLocked(job)
	} else {
		fire = !old.Status.Terminal() && job.Status.Terminal()
		job.Dismissed = old.Dismissed
		*old = job
	}
	s.mu.Unlock()

	if fire {
		s.toaster.Toast(completionToast(job))
	}
}

// ApplyDelete removes the job with the given id, if present.
func (s *JobStore) ApplyDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, j := range s.jobs {
		if j.ID == id {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return
		}
	}
}

// ApplyChange dispatches one realtime change event onto the store. Malformed
// payloads are logged and dropped; background feeds never interrupt the UI.
func (s *JobStore) ApplyChange(ev realtime.ChangeEvent) {
	switch ev.Type {
	case realtime.EventInsert, realtime.EventUpdate:
		var job models.Job
		if err := json.Unmarshal(ev.Record, &job); err != nil {
			s.logger.Warn("dropping malformed job event", "type", ev.Type, "error", err)
			return
		}
		if ev.Type == realtime.EventInsert {
			s.ApplyInsert(job)
		} else {
			s.ApplyUpdate(job)
		}
	case realtime.EventDelete:
		var old struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(ev.OldRecord, &old); err != nil || old.ID == "" {
			s.logger.Warn("dropping malformed job delete", "error", err)
			return
		}
		s.ApplyDelete(old.ID)
	}
}

// Jobs returns a copy of the full list, most recent first.
func (s *JobStore) Jobs() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Active returns non-terminal, non-dismissed jobs, capped at the active-view
// bound.
func (s *JobStore) Active() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Job
	for _, j := range s.jobs {
		if j.Status.Active() && !j.Dismissed {
			out = append(out, j)
			if len(out) == ActiveJobLimit {
				break
			}
		}
	}
	return out
}

// Get returns the job with the given id.
func (s *JobStore) Get(id string) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return models.Job{}, false
}

// Dismiss hides a terminal job locally. The flag is never persisted and a
// non-terminal job cannot be dismissed.
func (s *JobStore) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			if !s.jobs[i].Status.Terminal() {
				return false
			}
			s.jobs[i].Dismissed = true
			return true
		}
	}
	return false
}

func completionToast(job models.Job) Toast {
	if job.Status == models.JobFailed {
		desc := "ingestion failed"
		if job.ErrorMessage != nil && *job.ErrorMessage != "" {
			desc = *job.ErrorMessage
		}
		return Toast{
			Title:       "Ingestion failed",
			Description: desc,
			Variant:     VariantDestructive,
		}
	}
	return Toast{
		Title:       "Ingestion complete",
		Description: fmt.Sprintf("%d files imported from %s", job.ProcessedFiles, job.Provider),
		Variant:     VariantDefault,
	}
}
