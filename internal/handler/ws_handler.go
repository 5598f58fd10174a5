package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"gatherlocal/internal/pkg/limiter"
	"gatherlocal/internal/pkg/logx"
)

// HandleWebSocket upgrades a UI connection and serves the state stream on it
// until the UI goes away.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		logx.Info("Attempting to upgrade connection", "ip", ip)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		if err := deps.Stream.Attach(conn); err != nil {
			logx.Warn("State stream closed before attaching", "ip", ip, "error", err.Error())
			return
		}

		logx.Info("State stream connection closed", "ip", ip)
	}
}
