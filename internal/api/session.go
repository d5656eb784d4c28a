package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/0xPuncker/cron-console/internal/form"
	"github.com/0xPuncker/cron-console/internal/joblist"
	"github.com/0xPuncker/cron-console/internal/metrics"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const SessionCookie = "cron_console_session"

// UIState is everything the cron page remembers for one browser between requests.
type UIState struct {
	Form            form.State
	EditingJobID    string
	RunsJobID       string
	Filter          string
	FilterType      joblist.FilterType
	ConfirmRemoveID string
	Error           string
	Flash           string
}

func newUIState() UIState {
	return UIState{
		Form:       form.Default(),
		FilterType: joblist.FilterAll,
	}
}

// Session is the per-browser controller state. The busy flag is held while a
// gateway mutation is in flight.
type Session struct {
	ID string

	mu    sync.Mutex
	state UIState
	busy  bool
}

func (s *Session) State() UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Update(fn func(*UIState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// TryBegin marks the session busy. It returns false when another mutation holds it.
func (s *Session) TryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Session) End() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// TakeFlash returns the pending flash message and clears it.
func (s *Session) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	flash := s.state.Flash
	s.state.Flash = ""
	return flash
}

// SessionStore keeps sessions in memory, keyed by the session cookie.
type SessionStore struct {
	cache   *cache.Cache
	ttl     time.Duration
	secure  bool
	metrics *metrics.Metrics
}

// NewSessionStore creates the store. Expired sessions are dropped by Prune, which
// the maintenance scheduler calls.
func NewSessionStore(ttl time.Duration, secure bool, m *metrics.Metrics) *SessionStore {
	return &SessionStore{
		cache:   cache.New(ttl, 0),
		ttl:     ttl,
		secure:  secure,
		metrics: m,
	}
}

// Get returns the session of the request, creating one when the browser has none
// or its session expired. Every access extends the TTL and re-issues the cookie so
// the browser keeps it as long as the server does.
func (s *SessionStore) Get(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if cached, found := s.cache.Get(cookie.Value); found {
			sess := cached.(*Session)
			s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
			s.setCookie(w, sess.ID)
			return sess
		}
	}

	sess := &Session{ID: uuid.NewString(), state: newUIState()}
	s.cache.Set(sess.ID, sess, cache.DefaultExpiration)
	s.metrics.SetSessions(s.cache.ItemCount())
	s.setCookie(w, sess.ID)
	return sess
}

func (s *SessionStore) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Prune drops expired sessions and returns how many are left.
func (s *SessionStore) Prune() int {
	s.cache.DeleteExpired()
	n := s.cache.ItemCount()
	s.metrics.SetSessions(n)
	return n
}
