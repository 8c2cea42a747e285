// Package ui turns a chat.State into what every front end displays. Build is
// pure; the HTML page, the JSON API and the terminal widget all render its
// View so they cannot disagree.
package ui

import (
	"time"

	"github.com/onnwee/livechat-viewer/chat"
)

// Fixed copy shown by every front end.
const (
	Title         = "Live Chat"
	SubmitLabel   = "Load Chat"
	LoadingLabel  = "Loading..."
	Placeholder   = "Enter a valid Video ID and API Key to see live chat."
	VideoIDHint   = "Enter YouTube Video ID"
	APIKeyHint    = "Enter YouTube API Key"
	DefaultLayout = "3:04:05 PM"
)

// Options controls time formatting.
type Options struct {
	Location   *time.Location
	TimeLayout string
}

// Line is one rendered chat message.
type Line struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
	Time   string `json:"time"`
}

// View is the display model for one state snapshot.
type View struct {
	VideoID     string      `json:"video_id"`
	HasAPIKey   bool        `json:"has_api_key"`
	ChatID      string      `json:"chat_id,omitempty"`
	Status      chat.Status `json:"status"`
	Loading     bool        `json:"loading"`
	SubmitLabel string      `json:"submit_label"`
	Error       string      `json:"error,omitempty"`
	ShowBanner  bool        `json:"show_banner"`
	ShowEmpty   bool        `json:"show_placeholder"`
	Placeholder string      `json:"placeholder,omitempty"`
	Lines       []Line      `json:"messages"`
}

// Build renders s. The API key never leaves as text, only its presence.
func Build(s chat.State, opts Options) View {
	v := View{
		VideoID:     s.VideoID,
		HasAPIKey:   s.APIKey != "",
		ChatID:      s.ChatID,
		Status:      s.Status(),
		Loading:     s.Loading,
		SubmitLabel: SubmitLabel,
		Error:       s.Error,
		ShowBanner:  s.HasError(),
		Lines:       make([]Line, 0, len(s.Messages)),
	}
	if s.Loading {
		v.SubmitLabel = LoadingLabel
	}
	if len(s.Messages) == 0 && !s.HasError() {
		v.ShowEmpty = true
		v.Placeholder = Placeholder
	}
	for _, m := range s.Messages {
		v.Lines = append(v.Lines, Line{
			ID:     m.ID,
			Author: m.Author,
			Text:   m.Text,
			Time:   FormatTime(m.PublishedAt, opts),
		})
	}
	return v
}

// FormatTime renders the local time of day of t, or "" for the zero time.
func FormatTime(t time.Time, opts Options) string {
	if t.IsZero() {
		return ""
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	layout := opts.TimeLayout
	if layout == "" {
		layout = DefaultLayout
	}
	return t.In(loc).Format(layout)
}
