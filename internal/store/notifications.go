package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/axio-hub/axio-go/internal/client"
	"github.com/axio-hub/axio-go/internal/models"
	"github.com/axio-hub/axio-go/internal/optimistic"
	"github.com/axio-hub/axio-go/internal/realtime"
)

// DefaultNotificationPageSize mirrors the backend's page size.
const DefaultNotificationPageSize = 20

// notifMutationKey serializes every optimistic notification mutation. They
// all snapshot and restore the whole notifState, so the lock granularity
// must match: two mutations on separate keys would not queue, and a late
// rollback of one could resurrect state another had already cleared.
const notifMutationKey = "notifications"

// NotificationAPI is the slice of the backend client the notification store
// mutates through. *client.Client satisfies it.
type NotificationAPI interface {
	Notifications(ctx context.Context, limit int) (*client.NotificationPage, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	ClearNotifications(ctx context.Context) error
}

// notifState is the unit of optimistic snapshot/rollback: the list and both
// counters must be restored together when a mutation fails.
type notifState struct {
	items  []models.Notification
	total  int
	unread int
}

func (s notifState) clone() notifState {
	out := s
	out.items = make([]models.Notification, len(s.items))
	copy(out.items, s.items)
	return out
}

// NotificationStore is the in-memory cache of user notifications with
// optimistic read/clear mutations.
type NotificationStore struct {
	mu    sync.RWMutex
	state notifState

	limit   int
	api     NotificationAPI
	mutator *optimistic.Mutator[notifState]
	toaster Toaster
	logger  *slog.Logger
}

// NewNotificationStore creates a notification store backed by api.
func NewNotificationStore(api NotificationAPI, toaster Toaster, logger *slog.Logger) *NotificationStore {
	if toaster == nil {
		toaster = NopToaster
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &NotificationStore{
		limit:   DefaultNotificationPageSize,
		api:     api,
		toaster: toaster,
		logger:  logger,
	}
	s.mutator = optimistic.New(
		func(string) notifState {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.state.clone()
		},
		func(_ string, st notifState) {
			s.mu.Lock()
			s.state = st
			s.mu.Unlock()
		},
		func(_ string, err error) {
			s.toaster.Toast(Toast{
				Title:       "Something went wrong",
				Description: err.Error(),
				Variant:     VariantDestructive,
			})
		},
	)
	return s
}

// LoadInitial fetches the first page and the unread count, replacing local
// state wholesale. A response resolving after ctx cancellation is discarded.
func (s *NotificationStore) LoadInitial(ctx context.Context) error {
	page, err := s.api.Notifications(ctx, s.limit)
	if err != nil {
		return err
	}
	unread, err := s.api.UnreadCount(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	s.state = notifState{items: page.Notifications, total: page.Total, unread: unread}
	if len(s.state.items) > s.limit {
		s.state.items = s.state.items[:s.limit]
	}
	s.mu.Unlock()
	return nil
}

// ApplyInsert prepends a new notification and truncates to the page bound.
func (s *NotificationStore) ApplyInsert(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.state.items {
		if existing.ID == n.ID {
			s.state.items[i] = n
			return
		}
	}
	s.state.items = append([]models.Notification{n}, s.state.items...)
	if len(s.state.items) > s.limit {
		s.state.items = s.state.items[:s.limit]
	}
	s.state.total++
	if !n.Read {
		s.state.unread++
	}
}

// ApplyUpdate replaces the matching notification, adjusting the unread
// count by the read-flag delta.
func (s *NotificationStore) ApplyUpdate(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.state.items {
		if existing.ID != n.ID {
			continue
		}
		switch {
		case !existing.Read && n.Read:
			s.state.unread--
		case existing.Read && !n.Read:
			s.state.unread++
		}
		s.state.items[i] = n
		return
	}
}

// ApplyDelete removes the matching notification.
func (s *NotificationStore) ApplyDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.state.items {
		if n.ID == id {
			if !n.Read {
				s.state.unread--
			}
			s.state.total--
			s.state.items = append(s.state.items[:i], s.state.items[i+1:]...)
			return
		}
	}
}

// ApplyChange dispatches one realtime change event onto the store.
func (s *NotificationStore) ApplyChange(ev realtime.ChangeEvent) {
	switch ev.Type {
	case realtime.EventInsert, realtime.EventUpdate:
		var n models.Notification
		if err := json.Unmarshal(ev.Record, &n); err != nil {
			s.logger.Warn("dropping malformed notification event", "type", ev.Type, "error", err)
			return
		}
		if ev.Type == realtime.EventInsert {
			s.ApplyInsert(n)
		} else {
			s.ApplyUpdate(n)
		}
	case realtime.EventDelete:
		var old struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(ev.OldRecord, &old); err != nil || old.ID == "" {
			s.logger.Warn("dropping malformed notification delete", "error", err)
			return
		}
		s.ApplyDelete(old.ID)
	}
}

// Notifications returns a copy of the cached list, most recent first.
func (s *NotificationStore) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.state.items))
	copy(out, s.state.items)
	return out
}

// UnreadCount returns the cached unread count.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.unread
}

// Total returns the cached total count.
func (s *NotificationStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.total
}

// MarkRead optimistically marks one notification read, reverting the list
// and counts if the backend rejects the call.
func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	s.mu.RLock()
	for _, n := range s.state.items {
		if n.ID == id && n.Read {
			s.mu.RUnlock()
			return nil // already read, nothing to do
		}
	}
	s.mu.RUnlock()

	return s.mutator.Run(ctx, notifMutationKey, func(prev notifState) notifState {
		for i := range prev.items {
			if prev.items[i].ID == id && !prev.items[i].Read {
				prev.items[i].Read = true
				prev.unread--
				break
			}
		}
		return prev
	}, func(ctx context.Context, _ notifState) error {
		return s.api.MarkNotificationRead(ctx, id)
	})
}

// MarkAllRead optimistically marks every notification read.
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	return s.mutator.Run(ctx, notifMutationKey, func(prev notifState) notifState {
		for i := range prev.items {
			prev.items[i].Read = true
		}
		prev.unread = 0
		return prev
	}, func(ctx context.Context, _ notifState) error {
		return s.api.MarkAllNotificationsRead(ctx)
	})
}

// ClearAll optimistically removes every notification. On failure the prior
// list and counts are restored exactly.
func (s *NotificationStore) ClearAll(ctx context.Context) error {
	return s.mutator.Run(ctx, notifMutationKey, func(notifState) notifState {
		return notifState{}
	}, func(ctx context.Context, _ notifState) error {
		return s.api.ClearNotifications(ctx)
	})
}
