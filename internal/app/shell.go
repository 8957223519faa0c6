// Package app assembles the client, stores, and sync machinery into one
// explicit shell object with a defined lifecycle: created at startup, reset
// on sign-out, torn down at process exit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/axio-hub/axio-go/internal/client"
	"github.com/axio-hub/axio-go/internal/config"
	"github.com/axio-hub/axio-go/internal/models"
	"github.com/axio-hub/axio-go/internal/realtime"
	"github.com/axio-hub/axio-go/internal/store"
)

// Shell owns the shared client-side state. There are no package-level
// globals; everything the commands touch hangs off the shell.
type Shell struct {
	Config config.Config
	Logger *slog.Logger
	Client *client.Client

	Jobs          *store.JobStore
	Notifications *store.NotificationStore
	Prefs         *store.PrefStore
	Toaster       store.Toaster

	mu          sync.RWMutex
	session     Session
	sessionPath string
	syncers     []*store.Syncer
}

// NewShell builds the shell from configuration. The session (if any) is
// loaded from disk so the transport picks up the token immediately.
func NewShell(cfg config.Config, logger *slog.Logger, toaster store.Toaster) (*Shell, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if toaster == nil {
		toaster = store.NopToaster
	}

	sessionPath := cfg.SessionFile
	if sessionPath == "" {
		var err error
		sessionPath, err = DefaultSessionPath()
		if err != nil {
			return nil, err
		}
	}
	session, err := LoadSession(sessionPath)
	if err != nil {
		return nil, err
	}

	s := &Shell{
		Config:      cfg,
		Logger:      logger,
		Toaster:     toaster,
		session:     session,
		sessionPath: sessionPath,
	}
	s.Client = client.New(cfg.APIBaseURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logger),
		client.WithToken(s.token),
	)
	s.resetStores()
	return s, nil
}

func (s *Shell) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

func (s *Shell) resetStores() {
	s.Jobs = store.NewJobStore(store.JobHistoryLimit, s.Toaster, s.Logger)
	s.Notifications = store.NewNotificationStore(s.Client, s.Toaster, s.Logger)
	s.Prefs = store.NewPrefStore(s.Client, s.Toaster)
}

// SetToaster replaces the toast sink and rebuilds the stores around it.
// Cached store state does not survive the swap, so call this before
// StartSync.
func (s *Shell) SetToaster(t store.Toaster) {
	if t == nil {
		t = store.NopToaster
	}
	s.Toaster = t
	s.resetStores()
}

// Session returns the current sign-in state.
func (s *Shell) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SignIn persists the session and makes its token available to the
// transport. Sign-in is an auth flow, so the OAuth configuration must be
// present; a missing client id fails fast here.
func (s *Shell) SignIn(session Session) error {
	if err := s.Config.RequireOAuth(); err != nil {
		return err
	}
	if err := SaveSession(s.sessionPath, session); err != nil {
		return err
	}
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return nil
}

// SignOut clears the persisted session and resets all cached state.
func (s *Shell) SignOut() error {
	s.Close()
	if err := ClearSession(s.sessionPath); err != nil {
		return err
	}
	s.mu.Lock()
	s.session = Session{}
	s.mu.Unlock()
	s.resetStores()
	return nil
}

// StartSync launches the hybrid feeds for jobs and notifications: realtime
// push when a realtime backend is configured, 30-second polling whenever the
// channel is not connected.
func (s *Shell) StartSync(ctx context.Context) error {
	session := s.Session()
	if !session.SignedIn() {
		return fmt.Errorf("not signed in")
	}

	jobsFetch := store.FetchInto(func(ctx context.Context) ([]models.Job, error) {
		return s.Client.JobHistory(ctx, store.JobHistoryLimit)
	}, s.Jobs.Replace)

	notifFetch := func(ctx context.Context) error {
		return s.Notifications.LoadInitial(ctx)
	}

	jobsSyncer := s.newFeedSyncer(ctx, "ingestion_jobs", session.UserID, s.Jobs.ApplyChange, jobsFetch)
	notifSyncer := s.newFeedSyncer(ctx, "notifications", session.UserID, s.Notifications.ApplyChange, notifFetch)

	s.mu.Lock()
	s.syncers = append(s.syncers, jobsSyncer, notifSyncer)
	s.mu.Unlock()

	jobsSyncer.Start(ctx)
	notifSyncer.Start(ctx)
	return nil
}

func (s *Shell) newFeedSyncer(
	ctx context.Context,
	table, userID string,
	onChange func(realtime.ChangeEvent),
	fetch func(context.Context) error,
) *store.Syncer {
	if s.Config.RealtimeURL == "" {
		// No realtime backend configured: an always-disconnected push
		// source leaves the pull fallback carrying the feed alone.
		return store.NewHybridSyncer(
			func(ctx context.Context) (*realtime.Subscription, error) {
				return nil, fmt.Errorf("realtime disabled")
			},
			fetch, s.Config.PollInterval, s.Logger)
	}

	open := func(ctx context.Context) (*realtime.Subscription, error) {
		return realtime.Subscribe(ctx, s.Config.RealtimeURL, s.Config.RealtimeKey, table, userID, realtime.Options{
			OnChange: onChange,
			Logger:   s.Logger,
		})
	}
	return store.NewHybridSyncer(open, fetch, s.Config.PollInterval, s.Logger)
}

// SyncConnected reports whether any realtime feed currently holds a live
// channel. False while the poll fallback carries the feeds.
func (s *Shell) SyncConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sy := range s.syncers {
		if sy.Connected() {
			return true
		}
	}
	return false
}

// Close stops all running syncers. Idempotent.
func (s *Shell) Close() {
	s.mu.Lock()
	syncers := s.syncers
	s.syncers = nil
	s.mu.Unlock()
	for _, sy := range syncers {
		sy.Close()
	}
}
