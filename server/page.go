package server

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/onnwee/livechat-viewer/ui"
)

//go:embed web/index.html
var webFS embed.FS

var pageTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

type pageData struct {
	Title        string
	VideoIDHint  string
	APIKeyHint   string
	SubmitLabel  string
	LoadingLabel string
	Placeholder  string
	View         ui.View
}

// HandleIndex renders the widget with the current state; the page then
// follows /stream for updates.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:        ui.Title,
		VideoIDHint:  ui.VideoIDHint,
		APIKeyHint:   ui.APIKeyHint,
		SubmitLabel:  ui.SubmitLabel,
		LoadingLabel: ui.LoadingLabel,
		Placeholder:  ui.Placeholder,
		View:         h.viewOf(h.session.State()),
	}
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		slog.Error("render page failed", slog.Any("err", err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
