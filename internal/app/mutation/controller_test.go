package mutation

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/app/location"
	"gatherlocal/internal/app/notice"
	"gatherlocal/internal/pkg/errs"
)

type fakeBackend struct {
	creates   []event.Payload
	deletes   []event.ID
	createErr error
	deleteErr error
}

func (f *fakeBackend) CreateEvent(ctx context.Context, payload event.Payload) (event.Event, error) {
	f.creates = append(f.creates, payload)
	if f.createErr != nil {
		return event.Event{}, f.createErr
	}
	return event.Event{ID: "42", Title: payload.Title, Date: payload.Date, ImageURL: payload.ImageURL}, nil
}

func (f *fakeBackend) DeleteEvent(ctx context.Context, id event.ID) error {
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

type fakeSession bool

func (s fakeSession) Authenticated() bool { return bool(s) }

type fakeFeed struct {
	refreshes int
	removed   []event.ID
}

func (f *fakeFeed) Refresh(ctx context.Context) { f.refreshes++ }
func (f *fakeFeed) Remove(id event.ID)          { f.removed = append(f.removed, id) }

type fakeUploader struct {
	calls    int
	url      string
	err      error
	failures int
	bodies   []string
}

func (f *fakeUploader) Upload(ctx context.Context, asset event.Asset) (string, error) {
	f.calls++
	body, _ := io.ReadAll(asset.Body)
	f.bodies = append(f.bodies, string(body))
	if f.failures > 0 {
		f.failures--
		return "", errs.Wrap(errs.ErrAssetUploadFailed, errors.New("connection reset"))
	}
	return f.url, f.err
}

type fixedPosition struct{ state location.State }

func (p fixedPosition) State() location.State { return p.state }

func draft() event.Draft {
	return event.Draft{
		Title:        "Jazz Night",
		Description:  "Live set",
		HostName:     "Ana",
		Price:        "250",
		LocationName: "Blue Note",
		Date:         "2025-05-01",
		Time:         "18:30",
	}
}

func withAsset(d event.Draft) event.Draft {
	d.Asset = &event.Asset{FileName: "poster.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("data")}
	return d
}

type fixture struct {
	backend  *fakeBackend
	feed     *fakeFeed
	uploader *fakeUploader
	notices  *notice.Recorder
	ctrl     *Controller
}

func newFixture(authenticated bool, position location.State) *fixture {
	f := &fixture{
		backend:  &fakeBackend{},
		feed:     &fakeFeed{},
		uploader: &fakeUploader{url: "https://cdn.example.com/poster.png"},
		notices:  &notice.Recorder{},
	}
	f.ctrl = NewController(Deps{
		Backend:  f.backend,
		Session:  fakeSession(authenticated),
		Feed:     f.feed,
		Position: fixedPosition{state: position},
		Uploader: f.uploader,
		Notices:  f.notices,
		Location: time.UTC,
	})
	return f
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()

	t.Run("with image and coordinates", func(t *testing.T) {
		f := newFixture(true, location.Available{Coords: location.Coordinates{Lat: 12.9, Lng: 77.6}})

		created, err := f.ctrl.Create(context.Background(), withAsset(draft()))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created.ID != "42" {
			t.Fatalf("expected created event, got %+v", created)
		}
		if f.uploader.calls != 1 || len(f.backend.creates) != 1 {
			t.Fatalf("expected one upload and one create, got %d and %d", f.uploader.calls, len(f.backend.creates))
		}

		p := f.backend.creates[0]
		if p.Date != "2025-05-01T18:30:00Z" {
			t.Fatalf("expected combined instant, got %s", p.Date)
		}
		if p.ImageURL != "https://cdn.example.com/poster.png" {
			t.Fatalf("expected uploaded url, got %s", p.ImageURL)
		}
		if p.Latitude != 12.9 || p.Longitude != 77.6 || p.Price != 250 {
			t.Fatalf("unexpected payload %+v", p)
		}
		if p.Category != event.DefaultCategory {
			t.Fatalf("expected default category, got %q", p.Category)
		}
		if f.feed.refreshes != 1 {
			t.Fatalf("expected one feed refresh, got %d", f.feed.refreshes)
		}

		notices := f.notices.Notices()
		if len(notices) != 1 || notices[0].Message != "Event published successfully!" {
			t.Fatalf("unexpected notices %+v", notices)
		}
	})

	t.Run("without location uses zero coordinates", func(t *testing.T) {
		f := newFixture(true, location.Unavailable{Code: 1, Message: "denied"})
		d := draft()
		d.Category = "Music"
		d.ImageURL = "https://example.com/existing.png"

		if _, err := f.ctrl.Create(context.Background(), d); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		p := f.backend.creates[0]
		if p.Latitude != 0 || p.Longitude != 0 {
			t.Fatalf("expected zero coordinates, got %v,%v", p.Latitude, p.Longitude)
		}
		if p.Category != "Music" || p.ImageURL != "https://example.com/existing.png" {
			t.Fatalf("unexpected payload %+v", p)
		}
		if f.uploader.calls != 0 {
			t.Fatalf("expected no upload without an asset")
		}
	})

	t.Run("date is read in the configured zone", func(t *testing.T) {
		ist := time.FixedZone("IST", 5*3600+1800)
		backend := &fakeBackend{}
		ctrl := NewController(Deps{Backend: backend, Session: fakeSession(true), Location: ist})

		if _, err := ctrl.Create(context.Background(), draft()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if backend.creates[0].Date != "2025-05-01T13:00:00Z" {
			t.Fatalf("expected UTC instant, got %s", backend.creates[0].Date)
		}
	})
}

func TestCreate_StopsBeforeNetwork(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		authenticated bool
		mutate        func(d *event.Draft)
		code          int
	}{
		{name: "blank title", authenticated: true, mutate: func(d *event.Draft) { d.Title = "  " }, code: errs.ErrTitleRequired},
		{name: "negative price", authenticated: true, mutate: func(d *event.Draft) { d.Price = "-1" }, code: errs.ErrInvalidPrice},
		{name: "bad price", authenticated: true, mutate: func(d *event.Draft) { d.Price = "ten" }, code: errs.ErrInvalidPrice},
		{name: "missing time", authenticated: true, mutate: func(d *event.Draft) { d.Time = "" }, code: errs.ErrInvalidDateTime},
		{name: "bad date", authenticated: true, mutate: func(d *event.Draft) { d.Date = "01/05/2025" }, code: errs.ErrInvalidDateTime},
		{name: "signed out", authenticated: false, mutate: func(d *event.Draft) {}, code: errs.ErrUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(tc.authenticated, location.Pending{})
			d := withAsset(draft())
			tc.mutate(&d)

			_, err := f.ctrl.Create(context.Background(), d)
			if !errs.IsCode(err, tc.code) {
				t.Fatalf("expected code %d, got %v", tc.code, err)
			}
			if f.uploader.calls != 0 || len(f.backend.creates) != 0 {
				t.Fatalf("expected no network calls, got %d uploads and %d creates", f.uploader.calls, len(f.backend.creates))
			}
		})
	}
}

func TestCreate_UploadFailureSkipsCreate(t *testing.T) {
	t.Parallel()

	f := newFixture(true, location.Pending{})
	f.uploader.err = errs.Wrap(errs.ErrAssetUploadFailed, errors.New("connection reset"))

	_, err := f.ctrl.Create(context.Background(), withAsset(draft()))
	if !errs.IsCode(err, errs.ErrAssetUploadFailed) {
		t.Fatalf("expected ErrAssetUploadFailed, got %v", err)
	}
	if len(f.backend.creates) != 0 {
		t.Fatalf("expected zero create requests, got %d", len(f.backend.creates))
	}
	if f.feed.refreshes != 0 {
		t.Fatalf("expected no refresh")
	}

	notices := f.notices.Notices()
	if len(notices) != 1 || notices[0].Message != "Network error during upload" {
		t.Fatalf("unexpected notices %+v", notices)
	}
}

func TestCreate_RetryUploadsFullImage(t *testing.T) {
	t.Parallel()

	f := newFixture(true, location.Pending{})
	f.uploader.failures = 1
	d := withAsset(draft())

	if _, err := f.ctrl.Create(context.Background(), d); !errs.IsCode(err, errs.ErrAssetUploadFailed) {
		t.Fatalf("expected ErrAssetUploadFailed, got %v", err)
	}
	if _, err := f.ctrl.Create(context.Background(), d); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}

	if len(f.uploader.bodies) != 2 || f.uploader.bodies[0] != "data" || f.uploader.bodies[1] != "data" {
		t.Fatalf("expected the full image on both attempts, got %q", f.uploader.bodies)
	}
	if len(f.backend.creates) != 1 {
		t.Fatalf("expected one create request, got %d", len(f.backend.creates))
	}
}

func TestCreate_AssetWithoutHost(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	ctrl := NewController(Deps{Backend: backend, Session: fakeSession(true)})

	_, err := ctrl.Create(context.Background(), withAsset(draft()))
	if !errs.IsCode(err, errs.ErrAssetHostUnavailable) || errs.KindOf(err) != errs.KindCapabilityUnavailable {
		t.Fatalf("expected ErrAssetHostUnavailable, got %v", err)
	}
	if len(backend.creates) != 0 {
		t.Fatalf("expected no create request")
	}
}

func TestCreate_ServerFailure(t *testing.T) {
	t.Parallel()

	t.Run("server message", func(t *testing.T) {
		f := newFixture(true, location.Pending{})
		f.backend.createErr = errs.NewError(errs.ErrServerRejected).FromServer("Date must be in the future")

		_, err := f.ctrl.Create(context.Background(), draft())
		customErr, ok := errs.As(err)
		if !ok || customErr.Code != errs.ErrEventCreateFailed || customErr.Message != "Date must be in the future" {
			t.Fatalf("expected create failure with server message, got %v", err)
		}
		if f.feed.refreshes != 0 {
			t.Fatalf("expected no refresh after failure")
		}
	})

	t.Run("generic message", func(t *testing.T) {
		f := newFixture(true, location.Pending{})
		f.backend.createErr = errs.NewError(errs.ErrServerRejected)

		_, err := f.ctrl.Create(context.Background(), draft())
		customErr, _ := errs.As(err)
		if customErr == nil || customErr.Message != "Failed to create event" {
			t.Fatalf("expected generic create failure, got %v", err)
		}
		notices := f.notices.Notices()
		if len(notices) != 1 || notices[0].Level != notice.LevelError || notices[0].Message != "Failed to create event" {
			t.Fatalf("unexpected notices %+v", notices)
		}
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("success removes the item", func(t *testing.T) {
		f := newFixture(true, location.Pending{})
		if err := f.ctrl.Delete(context.Background(), "7"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.backend.deletes) != 1 || f.backend.deletes[0] != "7" {
			t.Fatalf("unexpected deletes %v", f.backend.deletes)
		}
		if len(f.feed.removed) != 1 || f.feed.removed[0] != "7" || f.feed.refreshes != 0 {
			t.Fatalf("expected local removal without refetch, got %v refreshes=%d", f.feed.removed, f.feed.refreshes)
		}
	})

	t.Run("failure keeps the lists", func(t *testing.T) {
		f := newFixture(true, location.Pending{})
		f.backend.deleteErr = errs.NewError(errs.ErrServerRejected).FromServer("Not your event")

		err := f.ctrl.Delete(context.Background(), "7")
		customErr, ok := errs.As(err)
		if !ok || customErr.Code != errs.ErrEventDeleteFailed || customErr.Message != "Not your event" {
			t.Fatalf("expected delete failure with server message, got %v", err)
		}
		if len(f.feed.removed) != 0 {
			t.Fatalf("expected lists untouched")
		}
		notices := f.notices.Notices()
		if len(notices) != 1 || notices[0].Level != notice.LevelError || notices[0].Message != "Not your event" {
			t.Fatalf("unexpected notices %+v", notices)
		}
	})

	t.Run("failure without server message", func(t *testing.T) {
		f := newFixture(true, location.Pending{})
		f.backend.deleteErr = errs.NewError(errs.ErrServerRejected)

		if err := f.ctrl.Delete(context.Background(), "7"); !errs.IsCode(err, errs.ErrEventDeleteFailed) {
			t.Fatalf("expected ErrEventDeleteFailed, got %v", err)
		}
		notices := f.notices.Notices()
		if len(notices) != 1 || notices[0].Message != "Failed to delete event." {
			t.Fatalf("unexpected notices %+v", notices)
		}
	})

	t.Run("signed out", func(t *testing.T) {
		f := newFixture(false, location.Pending{})
		if err := f.ctrl.Delete(context.Background(), "7"); !errs.IsCode(err, errs.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if len(f.backend.deletes) != 0 {
			t.Fatalf("expected no request")
		}
	})
}
