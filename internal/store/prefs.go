package store

import (
	"context"
	"sync"

	"github.com/axio-hub/axio-go/internal/optimistic"
)

// PrefAPI persists notification-setting toggles.
type PrefAPI interface {
	UpdateNotificationPref(ctx context.Context, key string, enabled bool) error
}

// PrefStore caches the user's notification settings and toggles them
// optimistically: the flag flips locally first, and a rejected call restores
// the prior value and raises a destructive toast.
type PrefStore struct {
	mu    sync.RWMutex
	prefs map[string]bool

	api     PrefAPI
	mutator *optimistic.Mutator[bool]
}

// NewPrefStore creates a preference store backed by api.
func NewPrefStore(api PrefAPI, toaster Toaster) *PrefStore {
	if toaster == nil {
		toaster = NopToaster
	}
	s := &PrefStore{
		prefs: make(map[string]bool),
		api:   api,
	}
	s.mutator = optimistic.New(
		func(key string) bool {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.prefs[key]
		},
		func(key string, v bool) {
			s.mu.Lock()
			s.prefs[key] = v
			s.mu.Unlock()
		},
		func(key string, err error) {
			toaster.Toast(Toast{
				Title:       "Failed to update setting",
				Description: err.Error(),
				Variant:     VariantDestructive,
			})
		},
	)
	return s
}

// Replace installs the settings fetched from the backend.
func (s *PrefStore) Replace(prefs map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = make(map[string]bool, len(prefs))
	for k, v := range prefs {
		s.prefs[k] = v
	}
}

// Enabled returns the cached value of one setting.
func (s *PrefStore) Enabled(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs[key]
}

// Toggle flips a setting optimistically and sends the opposite of the prior
// value to the backend. The prior value is read once this toggle's turn in
// the per-key queue comes up, so back-to-back toggles alternate instead of
// both sending the same stale flip.
func (s *PrefStore) Toggle(ctx context.Context, key string) error {
	return s.mutator.Run(ctx, key, func(prev bool) bool {
		return !prev
	}, func(ctx context.Context, next bool) error {
		return s.api.UpdateNotificationPref(ctx, key, next)
	})
}
