package handler

import (
	"net/http"

	"gatherlocal/internal/app/location"
	"gatherlocal/internal/pkg/resp"
)

// HandleGetLocation returns the probe state.
func HandleGetLocation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, location.ViewOf(deps.Location.State()))
	}
}

// HandleGetFeed returns the feed as currently held, without fetching.
func HandleGetFeed(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Feed.Snapshot())
	}
}

// HandleRefreshFeed re-fetches the feed and returns the result. A failed fetch
// keeps the previous events; the failure reaches the UI as a notice.
func HandleRefreshFeed(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Feed.Refresh(r.Context())
		resp.RespondSuccess(w, r, deps.Feed.Snapshot())
	}
}

// HandleMyEvents fetches the events the signed-in user hosts.
func HandleMyEvents(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := deps.Feed.RefreshMine(r.Context())
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, events)
	}
}
