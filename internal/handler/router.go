/*
Package handler provides the local bridge between the client core and its UI.

This file defines the main Router, applying middleware like logging, CORS and IP-based
rate limiting before delegating requests to the session, feed, event, checkout and
state stream handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"gatherlocal/internal/pkg/limiter"
	"gatherlocal/internal/pkg/logx"
	"gatherlocal/internal/pkg/resp"
)

const (
	AuthRate  = 0.2
	AuthBurst = 5
)

// Router sets up the bridge routing table. The returned stop func ends the
// rate limiter's background cleanup.
func Router(deps *AppDeps) (http.Handler, func()) {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "GatherLocal",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/session", HandleGetSession(deps))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(authLimiter.Middleware).Post("/login", HandleLogin(deps))
			auth.With(authLimiter.Middleware).Post("/register", HandleRegister(deps))
			auth.Post("/logout", HandleLogout(deps))
		})

		api.Get("/location", HandleGetLocation(deps))

		api.Get("/feed", HandleGetFeed(deps))
		api.Post("/feed/refresh", HandleRefreshFeed(deps))

		api.Route("/events", func(events chi.Router) {
			events.Get("/mine", HandleMyEvents(deps))
			events.Post("/", HandleCreateEvent(deps))
			events.Delete("/{id}", HandleDeleteEvent(deps))
			events.Post("/{id}/book", HandleBookEvent(deps))
		})

		api.Post("/checkout/{id}/callback", HandleCheckoutCallback(deps))
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader))

	return r, authLimiter.Stop
}
