package chat

import (
	"context"
	"log/slog"

	"github.com/onnwee/livechat-viewer/telemetry"
)

// API is the subset of the platform API the session needs. Implementations
// must treat an absent live chat id as ok=false with a nil error.
type API interface {
	LiveChatID(ctx context.Context, videoID, apiKey string) (chatID string, ok bool, err error)
	ChatMessages(ctx context.Context, chatID, apiKey string) ([]Message, error)
}

// Resolver maps a video id to its active live chat id. Every call performs a
// fresh lookup.
type Resolver struct {
	API   API
	Store *Store
	// Done, when set, marks the owner as torn down once closed. A lookup
	// that completes afterwards records nothing.
	Done <-chan struct{}
}

func (r *Resolver) ended() bool {
	if r.Done == nil {
		return false
	}
	select {
	case <-r.Done:
		return true
	default:
		return false
	}
}

// Resolve looks up the live chat for videoID and records the outcome in the
// store. It is a no-op returning ok=false when either input is empty or the
// owner has ended.
func (r *Resolver) Resolve(ctx context.Context, videoID, apiKey string) (string, bool) {
	if videoID == "" || apiKey == "" || r.ended() {
		return "", false
	}
	ctx, span := telemetry.StartSpan(ctx, "chat", "resolve_live_chat",
		telemetry.VideoIDAttr(videoID))
	defer span.End()
	log := slog.With(slog.String("component", "resolver"), slog.String("video_id", videoID))

	r.Store.Dispatch(ResolveStarted{VideoID: videoID, APIKey: apiKey})
	chatID, ok, err := r.API.LiveChatID(ctx, videoID, apiKey)
	if r.ended() {
		log.DebugContext(ctx, "lookup finished after teardown; dropped")
		return "", false
	}
	switch {
	case err != nil:
		telemetry.RecordError(span, err)
		telemetry.RecordResolve("error")
		log.WarnContext(ctx, "live chat lookup failed", slog.Any("err", err), slog.String("class", ClassifyError(err).String()))
		r.Store.Dispatch(ResolveFailed{Message: msgResolveFailedPfx + err.Error()})
		return "", false
	case !ok || chatID == "":
		telemetry.RecordResolve("no_chat")
		log.InfoContext(ctx, "no active live chat")
		r.Store.Dispatch(ResolveFailed{Message: MsgNoActiveLiveChat})
		return "", false
	}
	telemetry.RecordResolve("found")
	telemetry.SetSpanSuccess(span)
	log.InfoContext(ctx, "live chat resolved", slog.String("chat_id", chatID))
	r.Store.Dispatch(ResolveSucceeded{ChatID: chatID})
	return chatID, true
}
