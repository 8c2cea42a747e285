package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onnwee/livechat-viewer/ui"
)

const (
	defaultArchiveLimit = 100
	maxArchiveLimit     = 1000
)

// HandleArchive returns archived messages of a chat, newest first.
func (h *Handlers) HandleArchive(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "archive disabled")
		return
	}
	chatID := chi.URLParam(r, "chatID")
	limit := parseIntQuery(r, "limit", defaultArchiveLimit)
	if limit <= 0 || limit > maxArchiveLimit {
		limit = defaultArchiveLimit
	}
	msgs, err := h.archive.Recent(r.Context(), chatID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "archive query failed", slog.String("chat_id", chatID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "archive query failed")
		return
	}
	lines := make([]ui.Line, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, ui.Line{ID: m.ID, Author: m.Author, Text: m.Text, Time: ui.FormatTime(m.PublishedAt, h.view)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"chat_id": chatID, "messages": lines})
}
