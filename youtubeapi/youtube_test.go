package youtubeapi

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/onnwee/livechat-viewer/chat"
	"github.com/onnwee/livechat-viewer/config"
	"github.com/onnwee/livechat-viewer/testutil"
)

func newTestClient(t *testing.T, m *testutil.MockYouTubeServer) *Client {
	t.Helper()
	cfg := &config.Config{YouTubeEndpoint: m.Endpoint(), RequestTimeout: 2 * time.Second}
	c, err := NewWithHTTPClient(context.Background(), cfg, m.Client())
	if err != nil {
		t.Fatalf("NewWithHTTPClient() error: %v", err)
	}
	return c
}

func TestLiveChatID_Found(t *testing.T) {
	m := testutil.NewMockYouTubeServer(t)
	m.MockLiveChatID("vid1", "abc123")
	c := newTestClient(t, m)

	chatID, ok, err := c.LiveChatID(context.Background(), "vid1", "secret")
	if err != nil {
		t.Fatalf("LiveChatID() error: %v", err)
	}
	if !ok || chatID != "abc123" {
		t.Fatalf("LiveChatID() = %q, %v; want abc123, true", chatID, ok)
	}

	reqs := m.Requests(testutil.VideosPath)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 videos request, got %d", len(reqs))
	}
	q := reqs[0].URL.Query()
	if q.Get("key") != "secret" {
		t.Errorf("key = %q, want secret", q.Get("key"))
	}
	if q.Get("id") != "vid1" {
		t.Errorf("id = %q, want vid1", q.Get("id"))
	}
	if q.Get("part") != "liveStreamingDetails" {
		t.Errorf("part = %q, want liveStreamingDetails", q.Get("part"))
	}
}

func TestLiveChatID_Absent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *testutil.MockYouTubeServer)
	}{
		{"no live details", func(m *testutil.MockYouTubeServer) { m.MockLiveChatID("vid1", "") }},
		{"no items", func(m *testutil.MockYouTubeServer) { m.MockNoVideos() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMockYouTubeServer(t)
			tt.setup(m)
			c := newTestClient(t, m)
			chatID, ok, err := c.LiveChatID(context.Background(), "vid1", "secret")
			if err != nil {
				t.Fatalf("absent chat must not be an error, got %v", err)
			}
			if ok || chatID != "" {
				t.Errorf("LiveChatID() = %q, %v; want \"\", false", chatID, ok)
			}
		})
	}
}

func TestLiveChatID_NoFreshCaching(t *testing.T) {
	m := testutil.NewMockYouTubeServer(t)
	m.MockLiveChatID("vid1", "abc123")
	c := newTestClient(t, m)
	for i := 0; i < 3; i++ {
		if _, _, err := c.LiveChatID(context.Background(), "vid1", "secret"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if n := len(m.Requests(testutil.VideosPath)); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestLiveChatID_APIError(t *testing.T) {
	m := testutil.NewMockYouTubeServer(t)
	m.MockError(testutil.VideosPath, http.StatusBadRequest, "keyInvalid", "API key not valid. Please pass a valid API key.")
	c := newTestClient(t, m)

	_, ok, err := c.LiveChatID(context.Background(), "vid1", "bad")
	if err == nil {
		t.Fatal("expected error")
	}
	if ok {
		t.Error("ok must be false on error")
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusBadRequest {
		t.Errorf("expected wrapped googleapi.Error 400, got %v", err)
	}
	if got := chat.ClassifyError(err); got != chat.ErrorClassFatal {
		t.Errorf("ClassifyError() = %v, want fatal", got)
	}
}

func TestLiveChatID_EmptyInputs(t *testing.T) {
	m := testutil.NewMockYouTubeServer(t)
	c := newTestClient(t, m)
	if _, _, err := c.LiveChatID(context.Background(), "", "k"); err == nil {
		t.Error("expected error for empty video id")
	}
	if _, _, err := c.LiveChatID(context.Background(), "v", ""); err == nil {
		t.Error("expected error for empty api key")
	}
	if n := len(m.Requests(testutil.VideosPath)); n != 0 {
		t.Errorf("no request expected, got %d", n)
	}
}

func TestChatMessages(t *testing.T) {
	m := testutil.NewMockYouTubeServer(t)
	m.MockChatMessages([]testutil.ChatItem{
		{ID: "m1", Author: "alice", Text: "hello", PublishedAt: "2024-10-15T14:30:00Z"},
		{ID: "m2", Author: "bob", Text: "world", PublishedAt: "2024-10-15T14:30:01.5+00:00"},
		{ID: "m3", Author: "carol", Text: "bad time", PublishedAt: "yesterday"},
	})
	c := newTestClient(t, m)

	msgs, err := c.ChatMessages(context.Background(), "abc123", "secret")
	if err != nil {
		t.Fatalf("ChatMessages() error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	want := time.Date(2024, 10, 15, 14, 30, 0, 0, time.UTC)
	if msgs[0].ID != "m1" || msgs[0].Author != "alice" || msgs[0].Text != "hello" || !msgs[0].PublishedAt.Equal(want) {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if !msgs[1].PublishedAt.Equal(want.Add(1500 * time.Millisecond)) {
		t.Errorf("fractional timestamp parsed as %v", msgs[1].PublishedAt)
	}
	if !msgs[2].PublishedAt.IsZero() {
		t.Errorf("unparsable timestamp should be zero, got %v", msgs[2].PublishedAt)
	}

	reqs := m.Requests(testutil.LiveChatMessagesPath)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	q := reqs[0].URL.Query()
	if q.Get("liveChatId") != "abc123" {
		t.Errorf("liveChatId = %q", q.Get("liveChatId"))
	}
	if q.Get("key") != "secret" {
		t.Errorf("key = %q", q.Get("key"))
	}
	parts := map[string]bool{}
	for _, v := range q["part"] {
		for _, p := range splitComma(v) {
			parts[p] = true
		}
	}
	if !parts["snippet"] || !parts["authorDetails"] {
		t.Errorf("part = %v, want snippet and authorDetails", q["part"])
	}
}

func TestChatMessages_ServerError(t *testing.T) {
	m := testutil.NewMockYouTubeServer(t)
	m.MockError(testutil.LiveChatMessagesPath, http.StatusServiceUnavailable, "backendError", "Backend Error")
	c := newTestClient(t, m)

	_, err := c.ChatMessages(context.Background(), "abc123", "secret")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := chat.ClassifyError(err); got != chat.ErrorClassRetryable {
		t.Errorf("ClassifyError() = %v, want retryable", got)
	}
}

func TestToMessagesNilResponse(t *testing.T) {
	if got := toMessages(nil); got != nil {
		t.Errorf("toMessages(nil) = %v", got)
	}
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
