// Package session keeps live conversation states in a bounded, expiring
// in-memory registry. Everything here is process-local: a restart drops all
// conversations, which is acceptable because an intake takes a minute or two.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/otc-triage-server/internal/domain"
)

// Entry pairs a conversation state with its own lock so concurrent requests
// against the same session serialise per session, not globally.
type Entry struct {
	mu    sync.Mutex
	State *domain.ConversationState
}

// Lock takes the per-session lock.
func (e *Entry) Lock() { e.mu.Lock() }

// Unlock releases the per-session lock.
func (e *Entry) Unlock() { e.mu.Unlock() }

// Manager is the session registry. Capacity and TTL bound memory use; the
// oldest or expired sessions are silently dropped, and a dropped session
// simply looks like an unknown id to its owner.
type Manager struct {
	logger   *logrus.Logger
	sessions *expirable.LRU[string, *Entry]
}

// NewManager creates a registry holding at most maxSessions conversations,
// each expiring ttl after creation or last write.
func NewManager(logger *logrus.Logger, cfg domain.SessionConfig) *Manager {
	return &Manager{
		logger:   logger,
		sessions: expirable.NewLRU[string, *Entry](cfg.MaxSessions, nil, cfg.TTL),
	}
}

// Create starts a new conversation and returns its entry.
func (m *Manager) Create() *Entry {
	id := uuid.NewString()
	entry := &Entry{State: domain.NewConversationState(id)}
	m.sessions.Add(id, entry)
	m.logger.WithField("session", id).Debug("Created session")
	return entry
}

// Get returns the entry for id, or false when the session is unknown,
// expired or evicted.
func (m *Manager) Get(id string) (*Entry, bool) {
	return m.sessions.Get(id)
}

// Touch refreshes the TTL for an active session.
func (m *Manager) Touch(id string) {
	if entry, ok := m.sessions.Get(id); ok {
		m.sessions.Add(id, entry)
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}
