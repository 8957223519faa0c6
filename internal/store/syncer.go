package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/axio-hub/axio-go/internal/realtime"
)

// Source keeps one store reconciled with the backend. Run blocks until the
// context ends; Connected reports whether the source is currently receiving
// authoritative updates.
type Source interface {
	Run(ctx context.Context)
	Connected() bool
}

// PullSource refetches the feed on a fixed interval (and once at start). A
// Gate, when set, suppresses ticks: the hybrid policy polls only while the
// push channel is down. Fetch failures are logged and swallowed; background
// polling never interrupts the UI.
type PullSource struct {
	Interval time.Duration
	Fetch    func(ctx context.Context) error
	Gate     func() bool // skip tick when true
	Logger   *slog.Logger
}

// Run polls until ctx ends.
func (p *PullSource) Run(ctx context.Context) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p.poll(ctx, logger)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.Gate != nil && p.Gate() {
				continue
			}
			p.poll(ctx, logger)
		}
	}
}

func (p *PullSource) poll(ctx context.Context, logger *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	if err := p.Fetch(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("feed refetch failed", "error", err)
	}
}

// Connected is always false: polling is the fallback path, never the
// preferred one.
func (p *PullSource) Connected() bool { return false }

// FetchInto builds a Fetch function that loads a list and replaces the store
// wholesale. A response that resolves after the context is cancelled is
// discarded, so no state update survives teardown.
func FetchInto[T any](load func(ctx context.Context) ([]T, error), replace func([]T)) func(context.Context) error {
	return func(ctx context.Context) error {
		items, err := load(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		replace(items)
		return nil
	}
}

// PushSource adapts a realtime subscription into a Source.
type PushSource struct {
	Open func(ctx context.Context) (*realtime.Subscription, error)

	mu  sync.Mutex
	sub *realtime.Subscription
}

// Run opens the subscription and blocks until it finishes or ctx ends.
// Open errors leave the source permanently disconnected; the pull fallback
// carries the feed.
func (p *PushSource) Run(ctx context.Context) {
	sub, err := p.Open(ctx)
	if err != nil {
		slog.Default().Warn("realtime subscription unavailable, polling only", "error", err)
		<-ctx.Done()
		return
	}

	p.mu.Lock()
	p.sub = sub
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		sub.Close()
	case <-sub.Done():
	}
}

// Connected reports whether the underlying channel is joined.
func (p *PushSource) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sub != nil && p.sub.Connected()
}

// Syncer drives one store through a set of sources. The usual configuration
// is a push source plus a gated pull fallback.
type Syncer struct {
	sources []Source

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncer creates a syncer over the given sources.
func NewSyncer(sources ...Source) *Syncer {
	return &Syncer{sources: sources}
}

// NewHybridSyncer wires the standard fallback policy: subscribe for pushed
// changes, and poll with fetch every interval only while the subscription is
// not connected.
func NewHybridSyncer(
	open func(ctx context.Context) (*realtime.Subscription, error),
	fetch func(ctx context.Context) error,
	interval time.Duration,
	logger *slog.Logger,
) *Syncer {
	push := &PushSource{Open: open}
	pull := &PullSource{
		Interval: interval,
		Fetch:    fetch,
		Gate:     push.Connected,
		Logger:   logger,
	}
	return NewSyncer(push, pull)
}

// Start launches all sources. Call Close to stop them.
func (s *Syncer) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	for _, src := range s.sources {
		s.wg.Add(1)
		go func(src Source) {
			defer s.wg.Done()
			src.Run(runCtx)
		}(src)
	}
}

// Connected reports whether any source is connected.
func (s *Syncer) Connected() bool {
	for _, src := range s.sources {
		if src.Connected() {
			return true
		}
	}
	return false
}

// Close stops all sources and waits for them. Idempotent. After Close
// returns, no source touches the store again.
func (s *Syncer) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
