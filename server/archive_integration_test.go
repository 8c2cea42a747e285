package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/livechat-viewer/chat"
	"github.com/onnwee/livechat-viewer/config"
	"github.com/onnwee/livechat-viewer/db"
	"github.com/onnwee/livechat-viewer/testutil"
	"github.com/onnwee/livechat-viewer/ui"
	"github.com/onnwee/livechat-viewer/youtubeapi"
)

// Submit against the mocked API, let the poller archive a batch, and read it
// back through /archive.
func TestArchiveEndToEnd(t *testing.T) {
	database := testutil.SetupTestDB(t)
	chatID := "it-chat-" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		_, _ = database.Exec(`DELETE FROM chat_messages WHERE chat_id = $1`, chatID)
	})

	yt := testutil.NewMockYouTubeServer(t)
	yt.MockLiveChatID("live-it", chatID)
	yt.MockChatMessages([]testutil.ChatItem{
		{ID: chatID + "-1", Author: "alice", Text: "first", PublishedAt: "2024-01-01T15:00:00Z"},
		{ID: chatID + "-2", Author: "bob", Text: "second", PublishedAt: "2024-01-01T15:00:01Z"},
	})
	cfg := &config.Config{YouTubeEndpoint: yt.Endpoint(), RequestTimeout: 2 * time.Second}
	client, err := youtubeapi.NewWithHTTPClient(context.Background(), cfg, yt.Client())
	if err != nil {
		t.Fatalf("youtube client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	archive := &db.Archive{DB: database}
	sess := chat.NewSession(ctx, chat.Options{API: client, Sink: archive, PollInterval: 20 * time.Millisecond})
	t.Cleanup(func() {
		sess.Close()
		cancel()
	})
	h := NewMux(ctx, Deps{Session: sess, Archive: archive, View: ui.Options{Location: time.UTC}})

	if rr := postJSON(t, h, `{"video_id":"live-it","api_key":"k"}`); rr.Code != http.StatusOK {
		t.Fatalf("submit = %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		ChatID   string    `json:"chat_id"`
		Messages []ui.Line `json:"messages"`
	}
	deadline := time.Now().Add(3 * time.Second)
	for {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/archive/"+chatID, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("archive = %d", rr.Code)
		}
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Messages) == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("archived %d messages, want 2", len(body.Messages))
	}
	if body.Messages[0].Author != "bob" || body.Messages[0].Time != "3:00:01 PM" {
		t.Errorf("newest = %+v", body.Messages[0])
	}

	// Repeated polls of the same batch must not duplicate rows.
	time.Sleep(100 * time.Millisecond)
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM chat_messages WHERE chat_id = $1`, chatID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("readyz = %d", rr.Code)
	}
}
