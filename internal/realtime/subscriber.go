// Package realtime subscribes to row-level change events pushed by the
// backend over a websocket channel.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// EventType tags a row-level change.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is one row-level change on a subscribed table.
type ChangeEvent struct {
	Type      EventType
	Table     string
	Record    json.RawMessage
	OldRecord json.RawMessage
}

// Status describes the subscription connection state.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusDisconnected
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// channel protocol event names
const (
	evtJoin      = "phx_join"
	evtReply     = "phx_reply"
	evtError     = "phx_error"
	evtClose     = "phx_close"
	evtHeartbeat = "heartbeat"
)

const heartbeatTopic = "phoenix"

// message is one frame of the channel protocol.
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ref     string          `json:"ref,omitempty"`
}

// changePayload carries the row images of a change event.
type changePayload struct {
	Record    json.RawMessage `json:"record,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

// Options configures a subscription.
type Options struct {
	// OnChange receives each row-level change. Required.
	OnChange func(ChangeEvent)
	// OnStatus receives connection-state transitions. Optional.
	OnStatus func(Status)
	// Events restricts delivery to the listed change types. Empty means all.
	Events []EventType
	// Heartbeat interval keeping the channel open. Defaults to 30s.
	Heartbeat time.Duration
	Logger    *slog.Logger
}

// Subscription is one logical channel on a (table, user id) pair.
type Subscription struct {
	topic     string
	table     string
	endpoint  string
	apiKey    string
	opts      Options
	connected atomic.Bool

	mu     sync.Mutex
	closed bool
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}

	refCounter atomic.Int64
}

// Subscribe opens a channel for change events on table rows owned by userID.
// Connection errors are logged and retried with backoff; they are never
// surfaced to the event consumer. The caller must Close the subscription.
func Subscribe(ctx context.Context, endpoint, apiKey, table, userID string, opts Options) (*Subscription, error) {
	if opts.OnChange == nil {
		return nil, fmt.Errorf("realtime: OnChange callback is required")
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse realtime endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("apikey", apiKey)
		u.RawQuery = q.Encode()
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		topic:    fmt.Sprintf("realtime:public:%s:user_id=eq.%s", table, userID),
		table:    table,
		endpoint: u.String(),
		apiKey:   apiKey,
		opts:     opts,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go s.run(runCtx)
	return s, nil
}

// Connected reports whether the channel is currently joined. The hybrid
// syncer polls this flag to decide whether to fall back to refetching.
func (s *Subscription) Connected() bool {
	return s.connected.Load()
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()

	s.cancel()
	<-s.done
	s.setStatus(StatusClosed)
}

// Done reports completion of the run loop.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) setStatus(st Status) {
	if st == StatusConnected {
		s.connected.Store(true)
	} else {
		s.connected.Store(false)
	}
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(st)
	}
}

func (s *Subscription) nextRef() string {
	return strconv.FormatInt(s.refCounter.Add(1), 10)
}

// run reconnects with exponential backoff until the context is cancelled or
// the subscription is closed.
func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // retry forever

	for {
		s.setStatus(StatusConnecting)
		err := s.session(ctx)
		if ctx.Err() != nil || s.isClosed() {
			return
		}

		s.setStatus(StatusDisconnected)
		s.opts.Logger.Warn("realtime channel lost, reconnecting",
			"table", s.table, "error", err)

		wait := policy.NextBackOff()
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// session runs one connect/join/read cycle. Returns when the connection
// drops or the context ends.
func (s *Subscription) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	// Serialize writes between join, heartbeat, and shutdown.
	var writeMu sync.Mutex
	writeJSON := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	joinPayload, _ := json.Marshal(map[string]any{
		"config": map[string]any{"events": s.eventFilter()},
	})
	if err := writeJSON(message{
		Topic:   s.topic,
		Event:   evtJoin,
		Payload: joinPayload,
		Ref:     s.nextRef(),
	}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	// Close the socket when the context ends so ReadJSON unblocks.
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-sessionDone:
		}
	}()

	heartbeatStop := make(chan struct{})
	defer close(heartbeatStop)
	go func() {
		ticker := time.NewTicker(s.opts.Heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-heartbeatStop:
				return
			case <-ticker.C:
				hb := message{Topic: heartbeatTopic, Event: evtHeartbeat, Ref: s.nextRef()}
				if err := writeJSON(hb); err != nil {
					return
				}
			}
		}
	}()

	joined := false
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Event {
		case evtReply:
			if !joined && msg.Topic == s.topic {
				joined = true
				s.setStatus(StatusConnected)
				s.opts.Logger.Info("realtime channel joined", "table", s.table)
			}

		case evtError, evtClose:
			return fmt.Errorf("channel %s: %s", msg.Event, string(msg.Payload))

		case string(EventInsert), string(EventUpdate), string(EventDelete):
			if msg.Topic != s.topic || !s.wants(EventType(msg.Event)) {
				continue
			}
			var payload changePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				s.opts.Logger.Warn("malformed change payload",
					"table", s.table, "event", msg.Event, "error", err)
				continue
			}
			s.opts.OnChange(ChangeEvent{
				Type:      EventType(msg.Event),
				Table:     s.table,
				Record:    payload.Record,
				OldRecord: payload.OldRecord,
			})

		default:
			// Ignore unknown frames.
		}
	}
}

func (s *Subscription) eventFilter() string {
	if len(s.opts.Events) == 1 {
		return string(s.opts.Events[0])
	}
	return "*"
}

func (s *Subscription) wants(et EventType) bool {
	if len(s.opts.Events) == 0 {
		return true
	}
	for _, e := range s.opts.Events {
		if e == et {
			return true
		}
	}
	return false
}
