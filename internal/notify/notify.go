// Package notify collects transient operator notifications (toasts).
package notify

import (
	"errors"
	"sync"
)

// SomethingWentWrong is shown when a failure carries no server message.
const SomethingWentWrong = "Something went wrong!"

type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

type Toast struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives notifications produced by page controllers.
type Notifier interface {
	Error(msg string)
	Success(msg string)
}

// Queue is a Notifier that buffers toasts until the next Drain.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	max    int
}

// NewQueue returns a queue keeping at most max pending toasts; older ones
// are dropped first. max <= 0 means unbounded.
func NewQueue(max int) *Queue {
	return &Queue{max: max}
}

func (q *Queue) Error(msg string)   { q.push(Toast{Level: LevelError, Message: msg}) }
func (q *Queue) Success(msg string) { q.push(Toast{Level: LevelSuccess, Message: msg}) }
func (q *Queue) Info(msg string)    { q.push(Toast{Level: LevelInfo, Message: msg}) }

func (q *Queue) push(t Toast) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.toasts = append(q.toasts, t)
	if q.max > 0 && len(q.toasts) > q.max {
		q.toasts = q.toasts[len(q.toasts)-q.max:]
	}
}

// Drain returns and clears the pending toasts. It never returns nil so the
// result encodes as an empty JSON array.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.toasts
	q.toasts = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

// ServerMessager is implemented by errors that carry a message produced by
// a remote server.
type ServerMessager interface {
	ServerMessage() string
}

// Message picks the text shown for err: the server-provided message when
// there is one, otherwise SomethingWentWrong.
func Message(err error) string {
	var sm ServerMessager
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return SomethingWentWrong
}
