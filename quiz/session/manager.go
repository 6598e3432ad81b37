// Package session owns the process-wide table of active quiz sessions.
// The Manager is the only creator and destroyer of Session objects; the
// registry and transport layers hold non-owning references resolved
// through it.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/livequiz/quiz/game"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// DeckSource supplies question decks for new sessions.
type DeckSource interface {
	GetDefault() *game.Deck
	LoadDeck(name string) (*game.Deck, error)
}

// Manager handles session lifecycle. The lock covers only table
// insert/lookup/remove; session mutation happens under each session's own
// lock, never here.
type Manager struct {
	sessions map[string]*game.Session
	decks    DeckSource
	sink     Sink
	mu       sync.RWMutex
}

// NewManager creates a session manager without persistence.
func NewManager(decks DeckSource) *Manager {
	return &Manager{
		sessions: make(map[string]*game.Session),
		decks:    decks,
	}
}

// NewManagerWithSink creates a session manager that mirrors session
// records to a best-effort persistence sink.
func NewManagerWithSink(decks DeckSource, sink Sink) *Manager {
	return &Manager{
		sessions: make(map[string]*game.Session),
		decks:    decks,
		sink:     sink,
	}
}

// GetOrCreate returns the session for id, creating it in the Lobby phase
// with an empty roster and the default deck if it does not exist yet.
// Creation is idempotent: an existing session is returned as-is, never
// renamed or overwritten.
func (m *Manager) GetOrCreate(id, code string) *game.Session {
	m.mu.Lock()
	if s, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return s
	}

	s := game.NewSession(id, code, m.decks.GetDefault())
	m.sessions[id] = s
	m.mu.Unlock()

	m.save(s)
	return s
}

// Create makes a new session with an explicit deck choice. Used by the
// REST surface to pre-provision sessions; an empty id or code gets a
// generated one.
func (m *Manager) Create(id, code, deckName string) (*game.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if code == "" {
		code = shortCode()
	}

	deck := m.decks.GetDefault()
	if deckName != "" && deckName != "default" {
		var err error
		deck, err = m.decks.LoadDeck(deckName)
		if err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}
	s := game.NewSession(id, code, deck)
	m.sessions[id] = s
	m.mu.Unlock()

	m.save(s)
	return s, nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(id string) (*game.Session, error) {
	m.mu.RLock()
	s, exists := m.sessions[id]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove drops the session from the table and asks the sink to delete its
// record. The sink call runs detached after the in-memory removal; its
// failure is logged and never surfaced.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	_, existed := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if existed && m.sink != nil {
		go func() {
			if err := m.sink.DeleteSession(id); err != nil {
				log.Printf("Warning: failed to delete session %s from sink: %v", id, err)
			}
		}()
	}
}

// List returns all active sessions.
func (m *Manager) List() []*game.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*game.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupIdle ends and removes sessions with no live connections and no
// activity within maxAge. Returns the number removed.
func (m *Manager) CleanupIdle(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, s := range m.List() {
		if s.HasLiveConnections() || s.LastActivity().After(cutoff) {
			continue
		}
		s.End(game.EndReasonExpired)
		m.Remove(s.ID)
		removed++
	}

	return removed
}

// save mirrors a newly created session to the sink, best-effort.
func (m *Manager) save(s *game.Session) {
	if m.sink == nil {
		return
	}
	info := s.Snapshot()
	rec := &SessionRecord{
		ID:        s.ID,
		Code:      s.Code,
		DeckName:  info.DeckName,
		CreatedAt: s.CreatedAt,
	}
	if err := m.sink.SaveSession(rec); err != nil {
		log.Printf("Warning: failed to persist session %s: %v", s.ID, err)
	}
}

// shortCode generates a 6-character human-facing join code.
func shortCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	id := uuid.New()
	code := make([]byte, 6)
	for i := range code {
		code[i] = alphabet[int(id[i])%len(alphabet)]
	}
	return string(code)
}
