package server

import (
	"net/http"
	"strconv"

	"github.com/onnwee/livechat-viewer/telemetry"
)

// HandleHealthz responds to liveness probes.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports readiness; the archive database is checked when
// archiving is enabled.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	type check struct {
		name string
		fn   func() error
	}
	var checks []check
	if h.archive != nil {
		checks = append(checks, check{"archive", func() error { return h.archive.Ping(r.Context()) }})
	}

	for _, c := range checks {
		if err := c.fn(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": c.name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"session": string(h.session.State().Status()),
		"tracing": strconv.FormatBool(telemetry.IsTracingEnabled()),
	})
}
