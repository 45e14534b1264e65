package hub

import (
	"sync"

	"scholarfund-backend/internal/domain/apperr"
	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/pkg/id"
)

var (
	ErrAlreadyAuthenticated = apperr.New(apperr.ErrConflict, "connection is already authenticated")
	ErrNotAuthenticated     = apperr.New(apperr.ErrUnauthorized, "authenticate first")
	ErrSessionClosed        = apperr.New(apperr.ErrConflict, "connection is closed")
)

type State int

const (
	StateConnected State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is the per-connection lifecycle: connected, then authenticated
// exactly once, then closed.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	identity string
	role     notify.Role
}

func NewSession() *Session { return &Session{ID: id.NewSessionID()} }

func (s *Session) Authenticate(identity string, role notify.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateAuthenticated:
		return ErrAlreadyAuthenticated
	case StateClosed:
		return ErrSessionClosed
	}
	s.state = StateAuthenticated
	s.identity = identity
	s.role = role
	return nil
}

// Close reports whether this call performed the transition.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	return true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Principal returns identity and role; ok is false until authenticated.
func (s *Session) Principal() (identity string, role notify.Role, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == "" {
		return "", "", false
	}
	return s.identity, s.role, true
}
