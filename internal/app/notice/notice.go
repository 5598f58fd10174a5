// Package notice carries short-lived user-facing messages (toasts) from the
// controllers to whatever presentation layer is attached.
package notice

import "sync"

// Level is the severity shown to the user.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is one transient message.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Sink receives notices. Publish must not block.
type Sink interface {
	Publish(n Notice)
}

// Discard drops every notice.
var Discard Sink = discard{}

type discard struct{}

func (discard) Publish(Notice) {}

// Recorder keeps every published notice, for tests and headless runs.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Publish(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of what was published so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Error is a shortcut for an error-level notice.
func Error(msg string) Notice { return Notice{Level: LevelError, Message: msg} }

// Success is a shortcut for a success-level notice.
func Success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }
