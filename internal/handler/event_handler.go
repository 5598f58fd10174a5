package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
	"gatherlocal/internal/pkg/req"
	"gatherlocal/internal/pkg/resp"
)

// ImageField is the multipart part carrying the event image.
const ImageField = "image"

// BookInput describes an event the feed does not hold.
type BookInput struct {
	Title string   `json:"title"`
	Price *float64 `json:"price"`
}

// HandleCreateEvent reads a multipart event draft with an optional image and publishes it.
func HandleCreateEvent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		draft := event.Draft{
			Title:        req.FormString(r, "title"),
			Description:  req.FormString(r, "description"),
			HostName:     req.FormString(r, "hostName"),
			Category:     req.FormString(r, "category"),
			Price:        req.FormString(r, "price"),
			LocationName: req.FormString(r, "locationName"),
			Date:         req.FormString(r, "date"),
			Time:         req.FormString(r, "time"),
			ImageURL:     req.FormString(r, "imageUrl"),
		}

		file, header, customErr := req.OptionalFile(r, ImageField)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if file != nil {
			defer file.Close()
			draft.Asset = &event.Asset{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		}

		created, err := deps.Events.Create(r.Context(), draft)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		logx.Info("Event created through bridge", "event_id", string(created.ID))
		resp.RespondSuccess(w, r, created)
	}
}

// HandleDeleteEvent deletes one of the user's events.
func HandleDeleteEvent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := event.ID(strings.TrimSpace(chi.URLParam(r, "id")))

		if err := deps.Events.Delete(r.Context(), id); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, map[string]string{"id": string(id)})
	}
}

// HandleBookEvent joins a free event or runs checkout for a priced one. The
// response is held until the payment widget answers.
func HandleBookEvent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := event.ID(strings.TrimSpace(chi.URLParam(r, "id")))
		if id == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		target, ok := findEvent(deps.Feed, id)
		if !ok {
			if r.ContentLength == 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}

			var input BookInput
			if customErr := req.BindJSON(r, &input); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
			if input.Price == nil || *input.Price < 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			target = event.Event{ID: id, Title: strings.TrimSpace(input.Title), Price: *input.Price}
		}

		booking, err := deps.Bookings.Book(r.Context(), target)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, booking)
	}
}

func findEvent(f FeedService, id event.ID) (event.Event, bool) {
	for _, list := range [][]event.Event{f.Events(), f.Mine()} {
		for _, e := range list {
			if e.ID == id {
				return e, true
			}
		}
	}
	return event.Event{}, false
}
