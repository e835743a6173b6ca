package ws

import (
	"net/http"
	"net/url"

	"github.com/coder/websocket"

	"medminder-go/internal/state"
)

// Handler upgrades the request and streams state changes. The current state
// is sent first so a client never starts from nothing. allowedOrigins are
// full origins as used for CORS; same-host requests are always accepted.
func Handler(hub *Hub, store *state.Store, allowedOrigins []string) http.HandlerFunc {
	patterns := originHosts(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: patterns,
		})
		if err != nil {
			hub.log.BusinessError("ws: accept failed", err, "remote_addr", r.RemoteAddr)
			return
		}
		defer conn.CloseNow()

		client := NewClient(hub, conn)
		client.Run(r.Context(), func() Message {
			return Message{Type: TypeSnapshot, State: store.State()}
		})
	}
}

func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
