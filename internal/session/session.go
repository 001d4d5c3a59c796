// Package session keeps per-browser console state in memory: the signed-in
// operator, the page forms, the pagination controllers, the last location
// of each page and the pending toasts.
package session

import (
	"log"
	"sync"
	"time"

	"github.com/parisxmas/OxiDB/OxiWL/internal/auth"
	"github.com/parisxmas/OxiDB/OxiWL/internal/form"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/notify"
)

// Auth is the signed-in operator. It is only created by SignIn and only
// removed by SignOut or expiry.
type Auth struct {
	Token     string
	User      models.UserResponse
	ExpiresAt time.Time
}

type Session struct {
	ID     string
	toasts *notify.Queue
	now    func() time.Time

	mu          sync.Mutex
	lastSeen    time.Time
	auth        *Auth
	forms       map[string]form.Form
	locations   map[string]string
	controllers map[string]any
}

func newSession(id string, toastLimit int, now func() time.Time) *Session {
	s := &Session{
		ID:     id,
		toasts: notify.NewQueue(toastLimit),
		now:    now,
	}
	s.lastSeen = now()
	s.reset()
	return s
}

func (s *Session) reset() {
	s.forms = map[string]form.Form{}
	s.locations = map[string]string{}
	s.controllers = map[string]any{}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SignIn starts an authenticated session. The expiry is read from the
// token; page state from any previous sign-in is dropped.
func (s *Session) SignIn(token string, user models.UserResponse) error {
	exp, err := auth.ExpiresAt(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.auth = &Auth{Token: token, User: user, ExpiresAt: exp}
	return nil
}

// SignOut ends the authenticated session and drops all page state.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = nil
	s.reset()
}

// Auth returns the signed-in operator. An expired token signs the session
// out.
func (s *Session) Auth() (Auth, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth == nil {
		return Auth{}, false
	}
	if !s.auth.ExpiresAt.IsZero() && !s.now().Before(s.auth.ExpiresAt) {
		log.Printf("session %s: token for %s expired", s.ID, s.auth.User.Email)
		s.auth = nil
		s.reset()
		return Auth{}, false
	}
	return *s.auth, true
}

// Toasts is the session's notification queue.
func (s *Session) Toasts() *notify.Queue {
	return s.toasts
}

// Form returns the stored form for key, creating it with init on first use.
func (s *Session) Form(key string, init func() form.Form) form.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[key]
	if !ok {
		f = init()
		s.forms[key] = f
	}
	return f
}

// UpdateForm applies fn to the stored form for key and keeps the result
// unless fn fails.
func (s *Session) UpdateForm(key string, init func() form.Form, fn func(form.Form) (form.Form, error)) (form.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[key]
	if !ok {
		f = init()
	}
	next, err := fn(f)
	if err != nil {
		return f, err
	}
	s.forms[key] = next
	return next, nil
}

func (s *Session) SetForm(key string, f form.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[key] = f
}

// Location is the last URL a page reported for key, or "".
func (s *Session) Location(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locations[key]
}

func (s *Session) SetLocation(key, loc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[key] = loc
}

// Value returns the per-page object stored under key, creating it with
// build on first use. Objects are dropped on sign-in and sign-out.
func Value[T any](s *Session, key string, build func() T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.controllers[key].(T); ok {
		return v
	}
	v := build()
	s.controllers[key] = v
	return v
}
