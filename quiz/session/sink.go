package session

import "time"

// SessionRecord is the durable shape handed to the persistence sink. It
// carries only what an archive needs to identify the session; live roster
// and phase state stay in memory.
type SessionRecord struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	DeckName  string    `json:"deck_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink is the external persistence collaborator. Every call is best-effort:
// failures are logged by the caller and never block or roll back in-memory
// state. The coordinator writes to the sink but never reads from it.
type Sink interface {
	SaveSession(rec *SessionRecord) error
	DeleteSession(id string) error
}
