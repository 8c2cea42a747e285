package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session wires the Resolver and the Poller to one Store.
type Session struct {
	ID string

	store    *Store
	resolver *Resolver
	poller   *Poller

	// submitMu keeps two overlapping submits from racing the poll restart.
	submitMu sync.Mutex

	// ctx scopes every poll task; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// Options configures a Session.
type Options struct {
	API  API
	Sink Sink
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
}

// NewSession builds an idle session. Poll tasks live until Close or until
// parent is cancelled.
func NewSession(parent context.Context, opts Options) *Session {
	store := NewStore()
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:       uuid.NewString(),
		store:    store,
		resolver: &Resolver{API: opts.API, Store: store, Done: ctx.Done()},
		poller:   &Poller{API: opts.API, Store: store, Sink: opts.Sink, Interval: opts.PollInterval},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Store exposes the session store for renderers.
func (s *Session) Store() *Store { return s.store }

// State returns the current snapshot.
func (s *Session) State() State { return s.store.State() }

// Subscribe is shorthand for Store().Subscribe().
func (s *Session) Subscribe() (<-chan State, func()) { return s.store.Subscribe() }

// Submit resolves videoID and starts polling the resolved chat. Empty inputs
// are ignored. A chat id equal to the one already polled keeps the running
// task and its messages. It returns the state after resolution.
func (s *Session) Submit(ctx context.Context, videoID, apiKey string) State {
	if videoID == "" || apiKey == "" {
		return s.store.State()
	}
	if s.ctx.Err() != nil {
		return s.store.State()
	}
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	chatID, ok := s.resolver.Resolve(ctx, videoID, apiKey)
	if !ok || s.ctx.Err() != nil {
		return s.store.State()
	}
	if s.poller.ChatID() == chatID {
		slog.DebugContext(ctx, "chat already polled; keeping task", slog.String("component", "session"), slog.String("chat_id", chatID))
		return s.store.State()
	}
	s.poller.Start(s.ctx, chatID, apiKey)
	return s.store.State()
}

// Reset stops polling and clears all state.
func (s *Session) Reset() State {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()
	s.poller.Stop()
	return s.store.Dispatch(SessionReset{})
}

// Close tears the session down. The state is frozen and no poll task runs
// after Close returns, including one a concurrent Submit would have started.
// Close does not wait for an in-flight lookup.
func (s *Session) Close() {
	s.store.Close()
	s.cancel()
	s.poller.Stop()
}
