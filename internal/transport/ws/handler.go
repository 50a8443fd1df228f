package ws

import (
	"context"
	"net/http"

	"nhooyr.io/websocket"

	"github.com/vedran77/minilid/internal/identity"
	"github.com/vedran77/minilid/internal/logger"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (browsers can't set headers on upgrade).
func ServeWS(ctx context.Context, hub *Hub, jwtSecret string) http.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		caller, err := identity.ParseToken(secret, tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // any origin; tokens, not cookies, carry identity
		})
		if err != nil {
			hub.log.Warnw("ws accept failed", logger.FieldError, err)
			return
		}

		client := NewClient(hub, conn, caller.ID)
		if !hub.addClient(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump(ctx)
		go client.ReadPump(ctx)
	}
}
