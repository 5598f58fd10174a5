/*
Package mutation runs the host-side changes to events: publishing a new event from a
draft and deleting one the user hosts.

Publishing is sequential. The draft is validated locally, the pending image (if any)
is uploaded, the event record is created with the returned image URL and the device
coordinates, and only then is the feed refreshed. Any failed step stops the sequence
and leaves the draft as it was so the caller can retry.
*/
package mutation

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/app/location"
	"gatherlocal/internal/app/notice"
	"gatherlocal/internal/app/storage"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
)

const publishedMessage = "Event published successfully!"

// Backend is the part of the API the controller writes through.
type Backend interface {
	CreateEvent(ctx context.Context, payload event.Payload) (event.Event, error)
	DeleteEvent(ctx context.Context, id event.ID) error
}

// Session reports whether a credential is held.
type Session interface {
	Authenticated() bool
}

// Feed is what a successful mutation updates.
type Feed interface {
	Refresh(ctx context.Context)
	Remove(id event.ID)
}

// Positioner yields the current probe state.
type Positioner interface {
	State() location.State
}

// Deps groups the collaborators of a Controller.
type Deps struct {
	Backend  Backend
	Session  Session
	Feed     Feed
	Position Positioner

	// Uploader is nil when no asset host is configured.
	Uploader storage.Uploader

	Notices notice.Sink

	// Location is the zone draft date and time are read in. Nil means local time.
	Location *time.Location
}

// Controller publishes and deletes events.
type Controller struct {
	deps   Deps
	logger zerolog.Logger
}

// NewController returns a Controller over deps.
func NewController(deps Deps) *Controller {
	if deps.Notices == nil {
		deps.Notices = notice.Discard
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Controller{deps: deps, logger: logx.Component("mutation")}
}

// validated is a draft that passed local checks.
type validated struct {
	price    float64
	startsAt time.Time
}

func validate(d event.Draft, loc *time.Location) (validated, error) {
	if strings.TrimSpace(d.Title) == "" {
		return validated{}, errs.NewError(errs.ErrTitleRequired)
	}

	price, err := d.ParsePrice()
	if err != nil {
		return validated{}, errs.Wrap(errs.ErrInvalidPrice, err)
	}

	startsAt, err := event.CombineDateTime(d.Date, d.Time, loc)
	if err != nil {
		return validated{}, errs.Wrap(errs.ErrInvalidDateTime, err)
	}

	if d.Asset != nil {
		if customErr := storage.ValidateAsset(*d.Asset); customErr != nil {
			return validated{}, customErr
		}
	}

	return validated{price: price, startsAt: startsAt}, nil
}

// Create publishes draft and refreshes the feed. Validation and login are checked
// before any network call. An image upload failure aborts without creating the event.
func (c *Controller) Create(ctx context.Context, draft event.Draft) (event.Event, error) {
	v, err := validate(draft, c.deps.Location)
	if err != nil {
		return event.Event{}, err
	}

	if !c.deps.Session.Authenticated() {
		return event.Event{}, errs.NewError(errs.ErrUnauthorized)
	}

	imageURL := strings.TrimSpace(draft.ImageURL)
	if draft.Asset != nil {
		if c.deps.Uploader == nil {
			return event.Event{}, errs.NewError(errs.ErrAssetHostUnavailable)
		}

		if _, err := draft.Asset.Body.Seek(0, io.SeekStart); err != nil {
			return event.Event{}, errs.Wrap(errs.ErrAssetUploadFailed, err)
		}
		imageURL, err = c.deps.Uploader.Upload(ctx, *draft.Asset)
		if err != nil {
			customErr := errs.From(err)
			c.logger.Warn().Err(err).Str("title", draft.Title).Msg("Image upload failed, event not created.")
			c.deps.Notices.Publish(notice.Error(customErr.Message))
			return event.Event{}, customErr
		}
	}

	category := strings.TrimSpace(draft.Category)
	if category == "" {
		category = event.DefaultCategory
	}

	payload := event.Payload{
		Title:        strings.TrimSpace(draft.Title),
		Description:  draft.Description,
		HostName:     draft.HostName,
		Category:     category,
		Price:        v.price,
		LocationName: draft.LocationName,
		Date:         event.FormatInstant(v.startsAt),
		ImageURL:     imageURL,
	}
	if c.deps.Position != nil {
		if coords, ok := location.Coords(c.deps.Position.State()); ok {
			payload.Latitude, payload.Longitude = coords.Lat, coords.Lng
		}
	}

	created, err := c.deps.Backend.CreateEvent(ctx, payload)
	if err != nil {
		customErr := errs.Recode(errs.ErrEventCreateFailed, err)
		c.logger.Warn().Err(err).Str("title", payload.Title).Msg("Event creation failed.")
		c.deps.Notices.Publish(notice.Error(customErr.Message))
		return event.Event{}, customErr
	}

	c.logger.Info().Str("event_id", string(created.ID)).Str("title", payload.Title).Msg("Event published.")
	c.deps.Notices.Publish(notice.Success(publishedMessage))

	if c.deps.Feed != nil {
		c.deps.Feed.Refresh(ctx)
	}
	return created, nil
}

// Delete removes a hosted event. On success the item is dropped from the local
// lists without a refetch; on failure the lists are left as they are.
func (c *Controller) Delete(ctx context.Context, id event.ID) error {
	if strings.TrimSpace(string(id)) == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if !c.deps.Session.Authenticated() {
		return errs.NewError(errs.ErrUnauthorized)
	}

	if err := c.deps.Backend.DeleteEvent(ctx, id); err != nil {
		customErr := errs.Recode(errs.ErrEventDeleteFailed, err)
		c.logger.Warn().Err(err).Str("event_id", string(id)).Msg("Event deletion failed.")
		c.deps.Notices.Publish(notice.Error(customErr.Message))
		return customErr
	}

	c.logger.Info().Str("event_id", string(id)).Msg("Event deleted.")
	if c.deps.Feed != nil {
		c.deps.Feed.Remove(id)
	}
	return nil
}
