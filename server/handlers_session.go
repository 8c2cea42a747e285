package server

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

type submitRequest struct {
	VideoID string `json:"video_id"`
	APIKey  string `json:"api_key"`
}

// HandleState returns the current session view.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.viewOf(h.session.State()))
}

// HandleSubmit resolves the submitted video and starts polling its chat.
// It accepts a JSON body or the page's form fields; form posts are redirected
// back to the page.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	req, isForm, err := parseSubmit(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.VideoID = strings.TrimSpace(req.VideoID)
	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.VideoID == "" || req.APIKey == "" {
		if isForm {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		writeError(w, http.StatusBadRequest, "video_id and api_key are required")
		return
	}

	log := slog.With(slog.String("component", "http"))
	log.InfoContext(r.Context(), "session submit", slog.String("video_id", req.VideoID))

	// A dropped client must not turn into a resolve error on the shared session.
	ctx := context.WithoutCancel(r.Context())
	st := h.session.Submit(ctx, req.VideoID, req.APIKey)
	if st.HasError() {
		log.WarnContext(ctx, "session submit failed", slog.String("error", st.Error))
	}
	if isForm {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, h.viewOf(st))
}

// HandleReset stops polling and clears the session.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	st := h.session.Reset()
	slog.InfoContext(r.Context(), "session reset", slog.String("component", "http"))
	writeJSON(w, http.StatusOK, h.viewOf(st))
}

func parseSubmit(w http.ResponseWriter, r *http.Request) (submitRequest, bool, error) {
	var req submitRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return req, true, err
		}
		req.VideoID = r.PostForm.Get("videoId")
		req.APIKey = r.PostForm.Get("apiKey")
		return req, true, nil
	}
	if err := readJSON(w, r, &req); err != nil {
		return req, false, err
	}
	return req, false, nil
}
