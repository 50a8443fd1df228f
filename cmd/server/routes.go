package main

import (
	"net/http"

	"github.com/vedran77/minilid/internal/transport/http/handlers"
)

type routeHandlers struct {
	auth         *handlers.AuthHandler
	applications *handlers.ApplicationHandler
	channels     *handlers.ChannelHandler
	interviews   *handlers.InterviewHandler
	ws           http.HandlerFunc
}

// newRouter registers every route. Handlers resolve the caller themselves, so
// no route carries auth middleware.
func newRouter(h routeHandlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", h.auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.auth.Login)

	// Applications
	mux.HandleFunc("POST /api/v1/jobs/{id}/applications", h.applications.Apply)
	mux.HandleFunc("GET /api/v1/jobs/{id}/applications", h.applications.ListForJob)
	mux.HandleFunc("GET /api/v1/applications", h.applications.ListMine)
	mux.HandleFunc("GET /api/v1/applications/{id}", h.applications.Get)
	mux.HandleFunc("PATCH /api/v1/applications/{id}/status", h.applications.Transition)
	mux.HandleFunc("DELETE /api/v1/applications/{id}", h.applications.Withdraw)

	// Channels
	mux.HandleFunc("POST /api/v1/applications/{id}/channel", h.channels.Create)
	mux.HandleFunc("GET /api/v1/channels", h.channels.List)
	mux.HandleFunc("GET /api/v1/channels/{id}", h.channels.Get)
	mux.HandleFunc("POST /api/v1/channels/{id}/messages", h.channels.PostMessage)

	// Interviews
	mux.HandleFunc("POST /api/v1/interviews", h.interviews.Schedule)
	mux.HandleFunc("GET /api/v1/interviews", h.interviews.List)
	mux.HandleFunc("PATCH /api/v1/interviews/{id}/status", h.interviews.UpdateStatus)

	// WebSocket
	mux.HandleFunc("GET /ws", h.ws)

	return mux
}
