// Package web serves the account console: login/sign-up forms, the
// protected profile page, the social-handshake callback, and
// operational endpoints.
package web

import (
	"sync"

	"github.com/darshan87986/your-account-space/internal/authstate"
)

// Toast is one transient user-facing message.
type Toast struct {
	Level   string // success, warning, error
	Message string
}

// Toasts is an in-memory toast queue implementing authstate.Notifier.
// The console serves a single operator, so one process-wide queue is
// enough; pages drain it on render.
type Toasts struct {
	mu   sync.Mutex
	list []Toast
}

var _ authstate.Notifier = (*Toasts)(nil)

func (t *Toasts) Success(msg string) { t.push("success", msg) }
func (t *Toasts) Warning(msg string) { t.push("warning", msg) }
func (t *Toasts) Error(msg string)   { t.push("error", msg) }

func (t *Toasts) push(level, msg string) {
	t.mu.Lock()
	t.list = append(t.list, Toast{Level: level, Message: msg})
	t.mu.Unlock()
}

// Drain returns all queued toasts and empties the queue.
func (t *Toasts) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.list
	t.list = nil
	return out
}
