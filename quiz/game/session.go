// Package game holds the session aggregate for one running quiz instance:
// its roster, phase machine, host reference, and the fan-out that keeps
// every connected client's view current. All mutation goes through Session
// methods, each of which runs to completion (broadcasts included) under the
// session's own lock, so message handling is totally ordered per session.
package game

import (
	"errors"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wricardo/livequiz/quiz/protocol"
)

var (
	ErrHostConflict  = errors.New("session already has a host")
	ErrUnauthorized  = errors.New("operation requires host authority")
	ErrInvalidPhase  = errors.New("operation not valid in current phase")
	ErrInvalidValue  = errors.New("invalid value")
	ErrInvalidName   = errors.New("display name must be 1-20 characters")
	ErrSessionEnded  = errors.New("session has ended")
	ErrDeckExhausted = errors.New("no questions left in deck")
)

// Phase is the coarse-grained session state. Transitions only move
// Lobby -> Question -> (Leaderboard -> Question)* -> Ended, or jump to
// Ended from anywhere when the host departs.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseQuestion    Phase = "question"
	PhaseLeaderboard Phase = "leaderboard"
	PhaseEnded       Phase = "ended"
)

// End reasons carried in GAME_ENDED broadcasts.
const (
	EndReasonHostLeft  = "host_disconnected"
	EndReasonCompleted = "completed"
	EndReasonAdmin     = "ended_by_admin"
	EndReasonExpired   = "expired"
)

// Participant is one non-host member of a session. The record outlives any
// single connection: Conn is rewritten on reconnect and nil while the
// participant is offline, but ID, DisplayName, and Score persist until the
// session ends.
type Participant struct {
	ID          string
	DisplayName string
	Score       int
	Conn        Conn
}

// Session is the aggregate for one game instance. The zero value is not
// usable; construct with NewSession.
type Session struct {
	ID        string
	Code      string
	CreatedAt time.Time

	mu            sync.Mutex
	phase         Phase
	host          Conn
	roster        map[string]*Participant
	questionIndex int
	sharedScalar  int
	deck          *Deck
	lastActivity  time.Time
}

// NewSession creates a session in the Lobby phase with an empty roster.
func NewSession(id, code string, deck *Deck) *Session {
	now := time.Now()
	return &Session{
		ID:            id,
		Code:          code,
		CreatedAt:     now,
		phase:         PhaseLobby,
		roster:        make(map[string]*Participant),
		questionIndex: -1,
		deck:          deck,
		lastActivity:  now,
	}
}

// AttachHost claims host control for c. A second live connection attempting
// to attach while another holds the host seat is rejected; the same
// connection may re-attach idempotently. On success the new host receives a
// roster snapshot and the current shared scalar, without disturbing anyone
// else's view.
func (s *Session) AttachHost(c Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return ErrSessionEnded
	}
	if s.host != nil && s.host != c {
		return ErrHostConflict
	}

	s.host = c
	s.touchLocked()

	Unicast(c, protocol.TypePlayerListUpdate, protocol.PlayerListUpdate{Players: s.playersLocked()})
	Unicast(c, protocol.TypeSharedStateUpdate, protocol.SharedStateUpdate{NewState: s.sharedScalar})
	return nil
}

// Identify registers participantID in the roster, or re-attaches it if the
// identifier is already known (reconnect). Score and display name survive
// reconnects; only the connection reference is rewritten. An empty
// participantID gets a generated one. Returns the effective participant ID.
func (s *Session) Identify(c Conn, participantID, displayName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return "", ErrSessionEnded
	}

	p, exists := s.roster[participantID]
	if exists {
		p.Conn = c
	} else {
		if n := utf8.RuneCountInString(displayName); n < 1 || n > 20 {
			return "", ErrInvalidName
		}
		if participantID == "" {
			participantID = uuid.NewString()
		}
		p = &Participant{ID: participantID, DisplayName: displayName, Conn: c}
		s.roster[participantID] = p
	}
	s.touchLocked()

	Unicast(c, protocol.TypeIdentifySuccess, nil)
	Unicast(c, protocol.TypeSharedStateUpdate, protocol.SharedStateUpdate{NewState: s.sharedScalar})
	s.broadcast(protocol.TypePlayerListUpdate, protocol.PlayerListUpdate{Players: s.playersLocked()}, nil)
	return p.ID, nil
}

// Start moves the session from Lobby into the first question. Host only.
// Everyone receives GAME_STARTED followed by the first SHOW_QUESTION.
func (s *Session) Start(c Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return ErrSessionEnded
	}
	if c != s.host {
		return ErrUnauthorized
	}
	if s.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	if s.deck == nil || len(s.deck.Questions) == 0 {
		return ErrDeckExhausted
	}

	s.phase = PhaseQuestion
	s.questionIndex = 0
	s.touchLocked()

	s.broadcast(protocol.TypeGameStarted, nil, nil)
	s.broadcastQuestionLocked()
	return nil
}

// SetSharedState overwrites the host-controlled scalar and broadcasts the
// new value to every connection, host included. There is no diffing; a
// write of the current value still fans out.
func (s *Session) SetSharedState(c Conn, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return ErrSessionEnded
	}
	if c != s.host {
		return ErrUnauthorized
	}

	s.sharedScalar = value
	s.touchLocked()

	s.broadcast(protocol.TypeSharedStateUpdate, protocol.SharedStateUpdate{NewState: value}, nil)
	return nil
}

// Advance drives the Question/Leaderboard cycle. Host only. From Question
// it shows the standings; from Leaderboard it moves to the next question,
// or ends the session when the deck is exhausted. Returns true when the
// advance ended the session, so the caller can tear down store and
// registry state.
func (s *Session) Advance(c Conn) (ended bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return false, ErrSessionEnded
	}
	if c != s.host {
		return false, ErrUnauthorized
	}

	switch s.phase {
	case PhaseQuestion:
		s.phase = PhaseLeaderboard
		s.touchLocked()
		s.broadcast(protocol.TypePlayerListUpdate, protocol.PlayerListUpdate{Players: s.playersLocked()}, nil)
		return false, nil

	case PhaseLeaderboard:
		if s.questionIndex+1 >= len(s.deck.Questions) {
			s.endLocked(EndReasonCompleted, nil)
			return true, nil
		}
		s.questionIndex++
		s.phase = PhaseQuestion
		s.touchLocked()
		s.broadcastQuestionLocked()
		return false, nil

	default:
		return false, ErrInvalidPhase
	}
}

// SubmitAnswer acknowledges a participant's answer for the current
// question. Outside the Question phase, or for an unknown participant, the
// submission is silently ignored. Scoring the answer content is a pluggable
// concern that lives outside the coordinator.
func (s *Session) SubmitAnswer(c Conn, participantID string, answerIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseQuestion {
		return
	}
	if _, ok := s.roster[participantID]; !ok {
		return
	}
	s.touchLocked()

	Unicast(c, protocol.TypeAnswerReceived, nil)
}

// HostGone handles the host connection dropping. Returns true if c was the
// current host and the session was torn down: the game-ended notice is
// broadcast, every participant connection is force-closed, and the phase is
// terminal. A stale close (c no longer the host) is a no-op.
func (s *Session) HostGone(c Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded || s.host != c {
		return false
	}
	s.host = nil
	s.endLocked(EndReasonHostLeft, c)
	return true
}

// ParticipantGone clears the participant's connection reference but keeps
// the roster entry (and score) for a possible reconnect, then tells the
// remaining connections about the change.
func (s *Session) ParticipantGone(c Conn, participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return
	}
	p, ok := s.roster[participantID]
	if !ok || p.Conn != c {
		return
	}
	p.Conn = nil
	s.touchLocked()

	s.broadcast(protocol.TypePlayerListUpdate, protocol.PlayerListUpdate{Players: s.playersLocked()}, nil)
}

// End terminates the session regardless of phase: GAME_ENDED is broadcast
// with the given reason and every remaining connection is closed normally.
// Safe to call on an already-ended session.
func (s *Session) End(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded {
		return
	}
	s.endLocked(reason, nil)
}

// endLocked broadcasts GAME_ENDED (skipping excluding, normally the
// already-gone host connection), closes every remaining connection with a
// normal-closure code, and marks the session terminal. Callers hold s.mu.
func (s *Session) endLocked(reason string, excluding Conn) {
	s.broadcast(protocol.TypeGameEnded, protocol.GameEnded{Reason: reason}, excluding)

	if s.host != nil && s.host != excluding {
		s.host.Close(CloseNormal)
	}
	s.host = nil
	for _, p := range s.roster {
		if p.Conn != nil && p.Conn != excluding {
			p.Conn.Close(CloseNormal)
		}
		p.Conn = nil
	}

	s.phase = PhaseEnded
	s.lastActivity = time.Now()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SharedState returns the current host-controlled scalar.
func (s *Session) SharedState() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sharedScalar
}

// Players returns a snapshot of the roster in standings order.
func (s *Session) Players() []protocol.PlayerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playersLocked()
}

// HasLiveConnections reports whether any connection (host or participant)
// is currently attached. Used by the idle-session sweeper.
func (s *Session) HasLiveConnections() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.host != nil {
		return true
	}
	for _, p := range s.roster {
		if p.Conn != nil {
			return true
		}
	}
	return false
}

// LastActivity returns the time of the most recent state change.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Info summarizes the session for the REST and MCP surfaces.
type Info struct {
	ID            string                `json:"id"`
	Code          string                `json:"code"`
	Phase         Phase                 `json:"phase"`
	DeckName      string                `json:"deck_name"`
	QuestionIndex int                   `json:"question_index"`
	SharedState   int                   `json:"shared_state"`
	Players       []protocol.PlayerInfo `json:"players"`
	CreatedAt     time.Time             `json:"created_at"`
}

// Snapshot returns a point-in-time view of the session.
func (s *Session) Snapshot() *Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	deckName := ""
	if s.deck != nil {
		deckName = s.deck.Name
	}
	return &Info{
		ID:            s.ID,
		Code:          s.Code,
		Phase:         s.phase,
		DeckName:      deckName,
		QuestionIndex: s.questionIndex,
		SharedState:   s.sharedScalar,
		Players:       s.playersLocked(),
		CreatedAt:     s.CreatedAt,
	}
}

// playersLocked builds the roster snapshot, highest score first. Callers
// hold s.mu.
func (s *Session) playersLocked() []protocol.PlayerInfo {
	players := make([]protocol.PlayerInfo, 0, len(s.roster))
	for _, p := range s.roster {
		players = append(players, protocol.PlayerInfo{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Connected:   p.Conn != nil,
		})
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].ID < players[j].ID
	})
	return players
}

// broadcastQuestionLocked fans out the current question. Callers hold s.mu.
func (s *Session) broadcastQuestionLocked() {
	q := s.deck.Questions[s.questionIndex]
	s.broadcast(protocol.TypeShowQuestion, protocol.ShowQuestion{
		Index:   s.questionIndex,
		Text:    q.Text,
		Options: q.Options,
	}, nil)
}

func (s *Session) touchLocked() {
	s.lastActivity = time.Now()
}
