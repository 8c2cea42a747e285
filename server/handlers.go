// Package server exposes the widget over HTTP: the HTML page, a JSON API for
// submitting and reading the session, live pushes over SSE and WebSocket, the
// optional message archive, health probes and metrics.
package server

import (
	"context"
	"html/template"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/onnwee/livechat-viewer/chat"
	"github.com/onnwee/livechat-viewer/ui"
)

// Archive is the read side of the message archive.
type Archive interface {
	Recent(ctx context.Context, chatID string, limit int) ([]chat.Message, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators NewMux wires into the routes.
type Deps struct {
	Session *chat.Session
	// Archive is nil when archiving is disabled.
	Archive Archive
	View    ui.Options
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctx      context.Context
	session  *chat.Session
	archive  Archive
	view     ui.Options
	page     *template.Template
	upgrader websocket.Upgrader
}

// NewHandlers creates a new Handlers instance with the given dependencies.
// ctx ends long-lived streams on shutdown.
func NewHandlers(ctx context.Context, deps Deps, cors *corsConfig) *Handlers {
	return &Handlers{
		ctx:     ctx,
		session: deps.Session,
		archive: deps.Archive,
		view:    deps.View,
		page:    pageTemplate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cors.allows(r.Header.Get("Origin"))
			},
		},
	}
}

// viewOf renders the current session state.
func (h *Handlers) viewOf(s chat.State) ui.View { return ui.Build(s, h.view) }
