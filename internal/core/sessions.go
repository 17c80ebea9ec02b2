package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore maps browser sessions to their form controllers.
type SessionStore struct {
	mu            sync.Mutex
	sessions      map[string]*FormController
	ttl           time.Duration
	newController func() *FormController
}

func NewSessionStore(ttl time.Duration, newController func() *FormController) *SessionStore {
	return &SessionStore{
		sessions:      make(map[string]*FormController),
		ttl:           ttl,
		newController: newController,
	}
}

// Get returns the controller for id. Unknown or empty ids start a new
// session; the returned id is the one to hand back to the browser.
func (s *SessionStore) Get(id string) (*FormController, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if controller, ok := s.sessions[id]; ok && id != "" {
		return controller, id
	}
	id = uuid.NewString()
	controller := s.newController()
	s.sessions[id] = controller
	slog.Debug("session created", "session", id)
	return controller, id
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep resets and drops sessions idle for longer than the TTL, releasing
// their image previews. It returns the number of evicted sessions.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []*FormController
	for id, controller := range s.sessions {
		if now.Sub(controller.IdleSince()) > s.ttl {
			expired = append(expired, controller)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, controller := range expired {
		if err := controller.Reset(); err != nil {
			slog.Error("failed to reset expired session", "error", err)
		}
	}
	if len(expired) > 0 {
		slog.Info("expired sessions evicted", "count", len(expired))
	}
	return len(expired)
}

// Close resets every session.
func (s *SessionStore) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*FormController)
	s.mu.Unlock()

	for _, controller := range all {
		if err := controller.Reset(); err != nil {
			slog.Error("failed to reset session on close", "error", err)
		}
	}
}
