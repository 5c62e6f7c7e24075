package session

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentrouter/model"
)

// Session is a conversation snapshot.
type Session struct {
	ID       string
	Messages []model.Message
	Created  time.Time
	Updated  time.Time
}

// NewSession creates an empty session with the given id.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, Created: now, Updated: now}
}

// Clone returns a deep copy so callers cannot mutate stored history.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = slices.Clone(s.Messages)
	return &c
}

// Store persists session history.
type Store interface {
	// Get returns the session, creating it lazily.
	Get(sessionID string) (*Session, error)
	// Create creates or resets the session.
	Create(sessionID string) (*Session, error)
	// Append adds messages in order.
	Append(sessionID string, msgs ...model.Message) error
	// History returns at most the last limit messages; limit <= 0 means all.
	History(sessionID string, limit int) ([]model.Message, error)
}

// NewID returns a random session identifier.
func NewID() string {
	return uuid.NewString()
}
