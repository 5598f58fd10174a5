package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gatherlocal/internal/app/api"
	"gatherlocal/internal/app/event"
	"gatherlocal/internal/app/location"
	"gatherlocal/internal/app/notice"
	"gatherlocal/internal/pkg/errs"
)

type listCall struct {
	scope *api.Scope
}

type fakeSource struct {
	mu     sync.Mutex
	calls  []listCall
	events []event.Event
	mine   []event.Event
	err    error

	// gate, when set, blocks ListEvents until a value is received.
	gate chan []event.Event

	// gates, when set, blocks the n-th ListEvents call on gates[n].
	gates []chan []event.Event
}

func (f *fakeSource) ListEvents(ctx context.Context, scope *api.Scope) ([]event.Event, error) {
	f.mu.Lock()
	f.calls = append(f.calls, listCall{scope: scope})
	gate, events, err := f.gate, f.events, f.err
	if n := len(f.calls) - 1; n < len(f.gates) {
		gate = f.gates[n]
	}
	f.mu.Unlock()

	if gate != nil {
		events = <-gate
	}
	return events, err
}

func (f *fakeSource) MyEvents(ctx context.Context) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mine, f.err
}

func (f *fakeSource) Calls() []listCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listCall(nil), f.calls...)
}

type fixedPosition struct{ state location.State }

func (p fixedPosition) State() location.State { return p.state }

func sample(ids ...event.ID) []event.Event {
	out := make([]event.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, event.Event{ID: id, Title: "event " + string(id)})
	}
	return out
}

func ids(events []event.Event) []event.ID {
	out := make([]event.ID, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestController_RefreshQueryChoice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		state     location.State
		wantScope *api.Scope
	}{
		{name: "pending is unscoped", state: location.Pending{}},
		{name: "unavailable is unscoped", state: location.Unavailable{Code: 1, Message: "denied"}},
		{
			name:      "available is scoped",
			state:     location.Available{Coords: location.Coordinates{Lat: 12.9, Lng: 77.6}},
			wantScope: &api.Scope{Lat: 12.9, Lng: 77.6, RadiusKm: 10},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{events: sample("1", "2")}
			c := NewController(src, fixedPosition{state: tc.state}, 0, nil)

			c.Refresh(context.Background())

			calls := src.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(calls))
			}
			got := calls[0].scope
			if (got == nil) != (tc.wantScope == nil) {
				t.Fatalf("expected scope %+v, got %+v", tc.wantScope, got)
			}
			if got != nil && *got != *tc.wantScope {
				t.Fatalf("expected scope %+v, got %+v", *tc.wantScope, *got)
			}
			if len(c.Events()) != 2 || c.Loading() {
				t.Fatalf("expected 2 events and not loading, got %d loading=%v", len(c.Events()), c.Loading())
			}
		})
	}
}

func TestController_FailureKeepsFeed(t *testing.T) {
	t.Parallel()

	src := &fakeSource{events: sample("1", "2", "3")}
	rec := &notice.Recorder{}
	c := NewController(src, nil, 10, rec)

	c.Refresh(context.Background())

	src.mu.Lock()
	src.err = errs.Wrap(errs.ErrNetwork, errors.New("connection refused"))
	src.mu.Unlock()

	c.Refresh(context.Background())

	if got := ids(c.Events()); len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Fatalf("expected feed kept in order, got %v", got)
	}
	if c.Loading() {
		t.Fatalf("expected loading cleared after failure")
	}

	notices := rec.Notices()
	if len(notices) != 1 || notices[0].Message != "Could not load events" || notices[0].Level != notice.LevelError {
		t.Fatalf("expected one load failure notice, got %+v", notices)
	}
}

func TestController_LoadingDuringFetch(t *testing.T) {
	t.Parallel()

	src := &fakeSource{gate: make(chan []event.Event)}
	c := NewController(src, nil, 10, nil)

	var seen []bool
	var seenMu sync.Mutex
	c.Subscribe(func(s Snapshot) {
		seenMu.Lock()
		seen = append(seen, s.Loading)
		seenMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		c.Refresh(context.Background())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !c.Loading() {
		if time.Now().After(deadline) {
			t.Fatalf("expected loading while the fetch is in flight")
		}
		time.Sleep(time.Millisecond)
	}

	src.gate <- sample("9")
	<-done

	if c.Loading() {
		t.Fatalf("expected loading cleared")
	}
	seenMu.Lock()
	defer seenMu.Unlock()
	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Fatalf("expected loading transitions [true false], got %v", seen)
	}
}

func TestController_WatchRefetchesWhenLocationResolves(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	probe := location.NewProbe(gatedLocator{release: release, coords: location.Coordinates{Lat: 40.4, Lng: -3.7}})

	src := &fakeSource{events: sample("1")}
	c := NewController(src, nil, 10, nil)

	probe.Start(context.Background())
	c.Watch(context.Background(), probe)

	calls := src.Calls()
	if len(calls) != 1 || calls[0].scope != nil {
		t.Fatalf("expected one unscoped fetch while pending, got %+v", calls)
	}

	close(release)
	<-probe.Done()
	waitCalls(t, src, 2)

	calls = src.Calls()
	if calls[1].scope == nil || calls[1].scope.Lat != 40.4 || calls[1].scope.Lng != -3.7 {
		t.Fatalf("expected scoped re-fetch, got %+v", calls[1].scope)
	}
}

func TestController_CloseDiscardsLateResults(t *testing.T) {
	t.Parallel()

	t.Run("in-flight result", func(t *testing.T) {
		src := &fakeSource{gate: make(chan []event.Event)}
		c := NewController(src, nil, 10, nil)

		done := make(chan struct{})
		go func() {
			c.Refresh(context.Background())
			close(done)
		}()
		waitCalls(t, src, 1)

		c.Close()
		src.gate <- sample("late")
		<-done

		if len(c.Events()) != 0 {
			t.Fatalf("expected late result discarded, got %v", ids(c.Events()))
		}
	})

	t.Run("position resolving after close", func(t *testing.T) {
		release := make(chan struct{})
		probe := location.NewProbe(gatedLocator{release: release, coords: location.Coordinates{Lat: 1, Lng: 2}})
		src := &fakeSource{events: sample("1")}
		c := NewController(src, nil, 10, nil)

		probe.Start(context.Background())
		c.Watch(context.Background(), probe)
		c.Close()

		close(release)
		<-probe.Done()

		if n := len(src.Calls()); n != 1 {
			t.Fatalf("expected no fetch after close, got %d calls", n)
		}
	})
}

func TestController_LastResolvedWins(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		order []int
		want  event.ID
	}{
		{name: "in issue order", order: []int{0, 1}, want: "b"},
		{name: "out of issue order", order: []int{1, 0}, want: "a"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{gates: []chan []event.Event{make(chan []event.Event), make(chan []event.Event)}}
			c := NewController(src, nil, 10, nil)
			results := [][]event.Event{sample("a"), sample("b")}

			done := []chan struct{}{make(chan struct{}), make(chan struct{})}
			for i := range done {
				go func(i int) {
					c.Refresh(context.Background())
					close(done[i])
				}(i)
				waitCalls(t, src, i+1)
			}

			// Refresh i blocks on gates[i] since calls are issued one at a time.
			for _, i := range tc.order {
				src.gates[i] <- results[i]
				<-done[i]
			}

			if got := ids(c.Events()); len(got) != 1 || got[0] != tc.want {
				t.Fatalf("expected the last resolved result %s, got %v", tc.want, got)
			}
			if c.Loading() {
				t.Fatalf("expected loading cleared after both fetches")
			}
		})
	}
}

func TestController_Remove(t *testing.T) {
	t.Parallel()

	src := &fakeSource{events: sample("1", "2", "3"), mine: sample("2", "4")}
	c := NewController(src, nil, 10, nil)
	c.Refresh(context.Background())
	if _, err := c.RefreshMine(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	c.Remove("2")

	if got := ids(c.Events()); len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("expected [1 3], got %v", got)
	}
	if got := ids(c.Mine()); len(got) != 1 || got[0] != "4" {
		t.Fatalf("expected [4], got %v", got)
	}
}

func TestController_RefreshMineFailure(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: errs.NewError(errs.ErrServerRejected)}
	c := NewController(src, nil, 10, nil)

	_, err := c.RefreshMine(context.Background())
	if !errs.IsCode(err, errs.ErrMyEventsUnavailable) {
		t.Fatalf("expected ErrMyEventsUnavailable, got %v", err)
	}

	src.err = errs.NewError(errs.ErrUnauthorized)
	_, err = c.RefreshMine(context.Background())
	if errs.KindOf(err) != errs.KindAuthRejected {
		t.Fatalf("expected auth rejection to pass through, got %v", err)
	}
}

type gatedLocator struct {
	release chan struct{}
	coords  location.Coordinates
}

func (g gatedLocator) CurrentPosition(ctx context.Context) (location.Coordinates, error) {
	<-g.release
	return g.coords, nil
}

func waitCalls(t *testing.T, src *fakeSource, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(src.Calls()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d fetches, got %d", n, len(src.Calls()))
		}
		time.Sleep(time.Millisecond)
	}
}
