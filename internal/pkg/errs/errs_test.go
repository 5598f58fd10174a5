package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNewError(t *testing.T) {
	t.Run("template with details", func(t *testing.T) {
		err := NewError(ErrFileSizeTooLarge, 5)
		if err.Message != "Image is too large (max 5 MB)." {
			t.Fatalf("unexpected message %q", err.Message)
		}
		if err.Status != http.StatusOK {
			t.Fatalf("expected default status %d, got %d", http.StatusOK, err.Status)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		err := NewError(999999)
		if err.Code != ErrUnknown {
			t.Fatalf("expected code %d, got %d", ErrUnknown, err.Code)
		}
	})

	t.Run("copies are independent", func(t *testing.T) {
		a := NewError(ErrServerRejected).FromServer("Slot taken")
		b := NewError(ErrServerRejected)
		if a.Message == b.Message {
			t.Fatalf("expected the template to stay untouched, got %q", b.Message)
		}
	})
}

func TestFromAndKindOf(t *testing.T) {
	if From(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}

	plain := errors.New("boom")
	got := From(plain)
	if got.Code != ErrUnknown || !errors.Is(got, plain) {
		t.Fatalf("expected wrapped unknown error, got %v", got)
	}

	wrapped := fmt.Errorf("outer: %w", NewError(ErrNetwork))
	if KindOf(wrapped) != KindNetworkFailure || !IsCode(wrapped, ErrNetwork) {
		t.Fatalf("expected network kind through wrapping, got %s", KindOf(wrapped))
	}
	if KindOf(plain) != KindUnknown {
		t.Fatalf("expected unknown kind, got %s", KindOf(plain))
	}
}

func TestRecode(t *testing.T) {
	cases := []struct {
		name        string
		cause       error
		wantKind    Kind
		wantMessage string
	}{
		{
			name:        "network failure keeps kind",
			cause:       NewError(ErrNetwork),
			wantKind:    KindNetworkFailure,
			wantMessage: "Failed to create event",
		},
		{
			name:        "auth failure keeps kind",
			cause:       NewError(ErrSessionExpired),
			wantKind:    KindAuthRejected,
			wantMessage: "Failed to create event",
		},
		{
			name:        "server message wins",
			cause:       NewError(ErrServerRejected).FromServer("Title already used"),
			wantKind:    KindServerRejected,
			wantMessage: "Title already used",
		},
		{
			name:        "plain error",
			cause:       errors.New("boom"),
			wantKind:    KindServerRejected,
			wantMessage: "Failed to create event",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Recode(ErrEventCreateFailed, tc.cause)
			if got.Code != ErrEventCreateFailed {
				t.Fatalf("expected code %d, got %d", ErrEventCreateFailed, got.Code)
			}
			if got.Kind != tc.wantKind {
				t.Fatalf("expected kind %s, got %s", tc.wantKind, got.Kind)
			}
			if got.Message != tc.wantMessage {
				t.Fatalf("expected message %q, got %q", tc.wantMessage, got.Message)
			}
			if !errors.Is(got, tc.cause) {
				t.Fatalf("expected cause preserved")
			}
		})
	}
}

func TestErrorStringNamesMessageOnce(t *testing.T) {
	root := errors.New("backend answered 401")
	inner := Wrap(ErrInvalidCredentials, root).FromServer("Invalid credentials")
	outer := Recode(ErrInvalidCredentials, inner)

	got := outer.Error()
	if n := strings.Count(got, "Invalid credentials"); n != 1 {
		t.Fatalf("expected message once, got %d in %q", n, got)
	}
	if !strings.Contains(got, "backend answered 401") {
		t.Fatalf("expected root cause in %q", got)
	}
	if !strings.Contains(got, fmt.Sprintf("<- code %d", ErrInvalidCredentials)) {
		t.Fatalf("expected inner code in %q", got)
	}
}
