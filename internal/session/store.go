package session

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultCookieName = "oxiwl_session"

// Config configures a Store.
type Config struct {
	CookieName string
	IdleTTL    time.Duration
	Secure     bool
	ToastLimit int
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Store maps cookie values to sessions. Sessions idle for longer than
// IdleTTL are dropped.
type Store struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(cfg Config) *Store {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 12 * time.Hour
	}
	if cfg.ToastLimit <= 0 {
		cfg.ToastLimit = 20
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{cfg: cfg, sessions: map[string]*Session{}}
}

// Load returns the request's session, starting a new one and setting the
// cookie when the request carries none or an unknown one.
func (st *Store) Load(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(st.cfg.CookieName); err == nil {
		if s, ok := st.Get(c.Value); ok {
			s.touch()
			return s
		}
	}
	s := newSession(uuid.NewString(), st.cfg.ToastLimit, st.cfg.Now)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:     st.cfg.CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   st.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Get looks up a live session by id.
func (st *Store) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, false
	}
	if st.expired(s) {
		st.Destroy(id)
		return nil, false
	}
	return s, true
}

// Destroy forgets a session.
func (st *Store) Destroy(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expired(s *Session) bool {
	return st.cfg.Now().Sub(s.idleSince()) > st.cfg.IdleTTL
}

// Sweep drops idle sessions and reports how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				log.Printf("session: swept %d idle sessions", n)
			}
		}
	}
}
