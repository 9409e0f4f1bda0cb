package conversation

import (
	"sync"

	"github.com/edgard/renamerbot/internal/transport"
)

// State is a rename flow state.
type State int

const (
	Idle State = iota
	AwaitingFile
	AwaitingName
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingFile:
		return "awaiting_file"
	case AwaitingName:
		return "awaiting_name"
	default:
		return "unknown"
	}
}

// Session is a user's rename flow. Idle users have no session.
type Session struct {
	State     State
	File      *transport.Attachment
	Extension string
}

// Sessions holds at most one session per user.
type Sessions struct {
	mu    sync.Mutex
	items map[int64]Session
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{items: make(map[int64]Session)}
}

// Get returns the user's session, or an Idle one.
func (s *Sessions) Get(userID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[userID]
}

// Put stores sess. Storing an Idle session clears it.
func (s *Sessions) Put(userID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.State == Idle {
		delete(s.items, userID)
		return
	}
	s.items[userID] = sess
}

// Clear destroys the user's session.
func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, userID)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
