package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/livechat-viewer/telemetry"
)

// DefaultPollInterval is the period between message fetches.
const DefaultPollInterval = 2 * time.Second

// Sink receives messages newly merged into the list. It is optional.
type Sink interface {
	Archive(ctx context.Context, videoID, chatID string, msgs []Message) error
}

// Poller owns at most one running poll task.
type Poller struct {
	API      API
	Store    *Store
	Sink     Sink
	Interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	chatID string
}

// Start replaces the running task (if any) with one polling chatID. The
// previous task has fully exited when Start returns. Nothing is started once
// ctx is done.
func (p *Poller) Start(ctx context.Context, chatID, apiKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	if chatID == "" || ctx.Err() != nil {
		return
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	tctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done, p.chatID = cancel, done, chatID
	telemetry.SetActivePollers(1)
	go func() {
		defer close(done)
		p.run(tctx, chatID, apiKey, interval)
	}()
}

// Stop cancels the running task and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// ChatID returns the chat id of the running task, or "" when idle.
func (p *Poller) ChatID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chatID
}

func (p *Poller) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	slog.Debug("poll task stopped", slog.String("component", "poller"), slog.String("chat_id", p.chatID))
	p.cancel, p.done, p.chatID = nil, nil, ""
	telemetry.SetActivePollers(0)
}

func (p *Poller) run(ctx context.Context, chatID, apiKey string, interval time.Duration) {
	slog.InfoContext(ctx, "poll task started", slog.String("component", "poller"), slog.String("chat_id", chatID), slog.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		p.tick(ctx, chatID, apiKey)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick performs one fetch-and-merge. Results that arrive after the task was
// cancelled are discarded.
func (p *Poller) tick(ctx context.Context, chatID, apiKey string) {
	if ctx.Err() != nil {
		return
	}
	ctx, span := telemetry.StartSpan(ctx, "chat", "poll_tick", telemetry.ChatIDAttr(chatID))
	defer span.End()
	telemetry.RecordPollTick()

	batch, err := p.API.ChatMessages(ctx, chatID, apiKey)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		class := ClassifyError(err)
		telemetry.RecordError(span, err)
		telemetry.RecordPollFailure(class.String())
		slog.WarnContext(ctx, "poll tick failed", slog.String("component", "poller"), slog.String("chat_id", chatID), slog.String("class", class.String()), slog.Any("err", err))
		p.Store.Dispatch(PollFailed{ChatID: chatID, Message: msgFetchFailedPrefix + err.Error()})
		return
	}

	prev := p.Store.State()
	fresh := Fresh(prev.Messages, batch)
	next := p.Store.Dispatch(MessagesFetched{ChatID: chatID, Batch: batch})
	telemetry.SetSpanSuccess(span)
	if len(fresh) == 0 || next.ChatID != chatID {
		return
	}
	telemetry.RecordMerged(len(fresh), len(next.Messages))
	slog.DebugContext(ctx, "messages merged", slog.String("component", "poller"), slog.String("chat_id", chatID), slog.Int("new", len(fresh)), slog.Int("retained", len(next.Messages)))
	if p.Sink != nil {
		if err := p.Sink.Archive(ctx, next.VideoID, chatID, fresh); err != nil {
			slog.WarnContext(ctx, "archive write failed", slog.String("component", "poller"), slog.Any("err", err))
		}
	}
}
