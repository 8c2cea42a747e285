// Package youtubeapi wraps the YouTube Data API v3 for the two read-only calls
// the live chat viewer makes: resolving a video's active live chat id and
// listing the chat's current messages. The API key is supplied per call, so
// one client serves every session.
package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat-viewer/chat"
	"github.com/onnwee/livechat-viewer/config"
	"github.com/onnwee/livechat-viewer/telemetry"
)

var (
	errEmptyVideoID = errors.New("video id empty")
	errEmptyChatID  = errors.New("live chat id empty")
	errEmptyAPIKey  = errors.New("api key empty")
)

// Client implements chat.API on top of the generated YouTube service.
type Client struct {
	svc     *yt.Service
	timeout time.Duration
}

var _ chat.API = (*Client)(nil)

// New builds a client. cfg.YouTubeEndpoint overrides the API base URL (tests,
// proxies); cfg.RequestTimeout bounds every call.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	return NewWithHTTPClient(ctx, cfg, &http.Client{Timeout: cfg.RequestTimeout})
}

// NewWithHTTPClient is New with a caller-provided HTTP client.
func NewWithHTTPClient(ctx context.Context, cfg *config.Config, hc *http.Client) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if cfg.YouTubeEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.YouTubeEndpoint))
	}
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &Client{svc: svc, timeout: cfg.RequestTimeout}, nil
}

// LiveChatID returns the active live chat id of videoID. A video that does not
// exist, is not live, or has no chat yields ok=false with a nil error.
func (c *Client) LiveChatID(ctx context.Context, videoID, apiKey string) (string, bool, error) {
	if videoID == "" {
		return "", false, errEmptyVideoID
	}
	if apiKey == "" {
		return "", false, errEmptyAPIKey
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res, err := c.svc.Videos.List([]string{"liveStreamingDetails"}).
		Id(videoID).
		Context(ctx).
		Do(googleapi.QueryParameter("key", apiKey))
	telemetry.ObserveAPI("videos", time.Since(start))
	if err != nil {
		return "", false, describe(err)
	}
	chatID := activeLiveChatID(res)
	if chatID == "" {
		slog.DebugContext(ctx, "video has no active live chat", slog.String("component", "youtubeapi"), slog.String("video_id", videoID))
		return "", false, nil
	}
	return chatID, true, nil
}

// ChatMessages returns the messages currently served for chatID, in API order.
func (c *Client) ChatMessages(ctx context.Context, chatID, apiKey string) ([]chat.Message, error) {
	if chatID == "" {
		return nil, errEmptyChatID
	}
	if apiKey == "" {
		return nil, errEmptyAPIKey
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res, err := c.svc.LiveChatMessages.List(chatID, []string{"snippet", "authorDetails"}).
		Context(ctx).
		Do(googleapi.QueryParameter("key", apiKey))
	telemetry.ObserveAPI("live_chat_messages", time.Since(start))
	if err != nil {
		return nil, describe(err)
	}
	return toMessages(res), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// activeLiveChatID reads items[0].liveStreamingDetails.activeLiveChatId,
// treating every missing level as absent.
func activeLiveChatID(res *yt.VideoListResponse) string {
	if res == nil || len(res.Items) == 0 || res.Items[0] == nil {
		return ""
	}
	details := res.Items[0].LiveStreamingDetails
	if details == nil {
		return ""
	}
	return details.ActiveLiveChatId
}

func toMessages(res *yt.LiveChatMessageListResponse) []chat.Message {
	if res == nil {
		return nil
	}
	out := make([]chat.Message, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil || item.Id == "" {
			continue
		}
		m := chat.Message{ID: item.Id}
		if item.AuthorDetails != nil {
			m.Author = item.AuthorDetails.DisplayName
		}
		if item.Snippet != nil {
			m.Text = item.Snippet.DisplayMessage
			m.PublishedAt = parsePublished(item.Snippet.PublishedAt)
		}
		out = append(out, m)
	}
	return out
}

// parsePublished parses an RFC 3339 timestamp; bad input yields the zero time.
func parsePublished(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// describe shortens googleapi errors to "<code>: <message>" while keeping the
// original in the chain for ClassifyError.
func describe(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return &apiError{code: gerr.Code, msg: msg, err: err}
	}
	return err
}

type apiError struct {
	code int
	msg  string
	err  error
}

func (e *apiError) Error() string { return fmt.Sprintf("request failed with status code %d: %s", e.code, e.msg) }
func (e *apiError) Unwrap() error { return e.err }
