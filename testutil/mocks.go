package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// YouTube Data API paths served by MockYouTubeServer.
const (
	VideosPath           = "/youtube/v3/videos"
	LiveChatMessagesPath = "/youtube/v3/liveChat/messages"
)

// ChatItem is one liveChatMessages item in API shape.
type ChatItem struct {
	ID          string
	Author      string
	Text        string
	PublishedAt string
}

// MockYouTubeServer creates a test server that mocks YouTube Data API responses.
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu       sync.Mutex
	requests map[string][]*http.Request
}

// NewMockYouTubeServer creates a new mock YouTube API server.
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
		requests: make(map[string][]*http.Request),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		m.mu.Lock()
		m.requests[key] = append(m.requests[key], r.Clone(r.Context()))
		handler, ok := m.Handlers[key]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Endpoint returns the base URL to pass as the API endpoint override.
func (m *MockYouTubeServer) Endpoint() string { return m.URL + "/" }

// Handle installs handler for path.
func (m *MockYouTubeServer) Handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handlers[path] = handler
}

// Requests returns the requests received for path.
func (m *MockYouTubeServer) Requests(path string) []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests[path]...)
}

// MockLiveChatID answers videos.list with activeLiveChatId. An empty chatID
// returns an item without liveStreamingDetails.
func (m *MockYouTubeServer) MockLiveChatID(videoID, chatID string) {
	m.Handle(VideosPath, func(w http.ResponseWriter, r *http.Request) {
		item := map[string]interface{}{"id": videoID}
		if chatID != "" {
			item["liveStreamingDetails"] = map[string]string{"activeLiveChatId": chatID}
		}
		writeJSON(w, map[string]interface{}{"items": []interface{}{item}})
	})
}

// MockNoVideos answers videos.list with an empty item list.
func (m *MockYouTubeServer) MockNoVideos() {
	m.Handle(VideosPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"items": []interface{}{}})
	})
}

// MockChatMessages answers liveChatMessages.list with items.
func (m *MockYouTubeServer) MockChatMessages(items []ChatItem) {
	m.Handle(LiveChatMessagesPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, ChatResponse(items))
	})
}

// MockError answers path with a Google API error envelope.
func (m *MockYouTubeServer) MockError(path string, code int, reason, message string) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck // test mock response
			"error": map[string]interface{}{
				"code":    code,
				"message": message,
				"errors":  []map[string]string{{"reason": reason, "message": message}},
			},
		})
	})
}

// ChatResponse builds a liveChatMessages.list body.
func ChatResponse(items []ChatItem) map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]interface{}{
			"id":            it.ID,
			"snippet":       map[string]string{"displayMessage": it.Text, "publishedAt": it.PublishedAt},
			"authorDetails": map[string]string{"displayName": it.Author},
		})
	}
	return map[string]interface{}{"items": out, "pollingIntervalMillis": 2000}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test mock response
}
