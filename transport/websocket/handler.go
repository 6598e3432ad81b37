package websocket

import (
	"log"
	"net/http"

	"github.com/wricardo/livequiz/quiz/game"
	"github.com/wricardo/livequiz/quiz/protocol"
	"github.com/wricardo/livequiz/quiz/registry"
	"github.com/wricardo/livequiz/quiz/session"
)

// Handler wires inbound frames to session logic and runs teardown when a
// connection drops. It owns no session state itself; everything is resolved
// through the injected store and registry.
type Handler struct {
	store    *session.Manager
	registry *registry.Registry
}

// NewHandler creates a lifecycle handler over the given store and registry.
func NewHandler(store *session.Manager, reg *registry.Registry) *Handler {
	return &Handler{
		store:    store,
		registry: reg,
	}
}

// ServeWS upgrades an HTTP request and starts the connection pumps. The
// caller arrives already authenticated; identification against a session
// happens through HOST_JOIN or PLAYER_IDENTIFY frames.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		handler: h,
		conn:    conn,
		send:    make(chan []byte, 256),
	}

	go client.writePump()
	go client.readPump()
}

// HandleMessage decodes one inbound frame and dispatches it. Malformed
// frames earn the sender an ERROR reply and change no state.
func (h *Handler) HandleMessage(c *Client, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	switch env.Type {
	case protocol.TypeHostJoin:
		h.handleHostJoin(c, env)
	case protocol.TypePlayerIdentify:
		h.handlePlayerIdentify(c, env)
	case protocol.TypeStartGame:
		h.handleStartGame(c)
	case protocol.TypeAdminUpdateShared:
		h.handleUpdateSharedState(c, env)
	case protocol.TypeNextQuestion:
		h.handleNextQuestion(c)
	case protocol.TypeSubmitAnswer:
		h.handleSubmitAnswer(c, env)
	}
}

// HandleDisconnect runs the teardown path for a closed connection. A
// connection that never completed identification has nothing to clean up.
// The registry entry is removed first so a second close of the same
// connection is a no-op.
func (h *Handler) HandleDisconnect(c *Client) {
	assoc, ok := h.registry.Lookup(c)
	if !ok {
		return
	}
	h.registry.Remove(c)

	s, err := h.store.Get(assoc.SessionID)
	if err != nil {
		return
	}

	if assoc.IsHost {
		if s.HostGone(c) {
			h.registry.RemoveSession(assoc.SessionID)
			h.store.Remove(assoc.SessionID)
		}
		return
	}

	s.ParticipantGone(c, assoc.ParticipantID)
}

// EndSession force-ends a session on behalf of an operator, using the same
// teardown as host departure.
func (h *Handler) EndSession(id, reason string) error {
	s, err := h.store.Get(id)
	if err != nil {
		return err
	}

	s.End(reason)
	h.registry.RemoveSession(id)
	h.store.Remove(id)
	return nil
}

func (h *Handler) handleHostJoin(c *Client, env *protocol.Envelope) {
	var p protocol.HostJoin
	if err := protocol.DecodePayload(env, &p); err != nil {
		h.sendError(c, err.Error())
		return
	}
	if p.SessionID == "" {
		h.sendError(c, "sessionId is required")
		c.Close(game.CloseInternalError)
		return
	}

	if err := h.registry.Associate(c, registry.Association{SessionID: p.SessionID, IsHost: true}); err != nil {
		h.sendError(c, err.Error())
		c.Close(game.CloseInternalError)
		return
	}

	s := h.store.GetOrCreate(p.SessionID, p.SessionCode)
	if err := s.AttachHost(c); err != nil {
		h.registry.Remove(c)
		h.sendError(c, err.Error())
		c.Close(game.CloseInternalError)
		return
	}
}

func (h *Handler) handlePlayerIdentify(c *Client, env *protocol.Envelope) {
	var p protocol.PlayerIdentify
	if err := protocol.DecodePayload(env, &p); err != nil {
		h.sendError(c, err.Error())
		return
	}

	s, err := h.store.Get(p.SessionID)
	if err != nil {
		h.sendError(c, err.Error())
		c.Close(game.CloseInternalError)
		return
	}

	// A duplicate identify from the same connection is idempotent; claiming
	// a different identity is not allowed.
	if assoc, ok := h.registry.Lookup(c); ok {
		if assoc.IsHost || assoc.SessionID != p.SessionID ||
			(p.ParticipantID != "" && assoc.ParticipantID != p.ParticipantID) {
			h.sendError(c, registry.ErrConflict.Error())
			c.Close(game.CloseInternalError)
			return
		}
		p.ParticipantID = assoc.ParticipantID
	}

	participantID, err := s.Identify(c, p.ParticipantID, p.DisplayName)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	if err := h.registry.Associate(c, registry.Association{
		SessionID:     p.SessionID,
		ParticipantID: participantID,
	}); err != nil {
		// Pre-checked above; only a racing close can get here.
		log.Printf("Failed to register participant %s: %v", participantID, err)
	}
}

func (h *Handler) handleStartGame(c *Client) {
	s, ok := h.resolveSession(c)
	if !ok {
		return
	}
	if err := s.Start(c); err != nil {
		h.sendError(c, err.Error())
	}
}

func (h *Handler) handleUpdateSharedState(c *Client, env *protocol.Envelope) {
	s, ok := h.resolveSession(c)
	if !ok {
		return
	}

	var p protocol.AdminUpdateSharedState
	if err := protocol.DecodePayload(env, &p); err != nil || p.NewState == nil {
		h.sendError(c, game.ErrInvalidValue.Error())
		return
	}

	if err := s.SetSharedState(c, *p.NewState); err != nil {
		h.sendError(c, err.Error())
	}
}

func (h *Handler) handleNextQuestion(c *Client) {
	assoc, ok := h.registry.Lookup(c)
	if !ok {
		h.sendError(c, "connection not identified")
		return
	}
	s, err := h.store.Get(assoc.SessionID)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	ended, err := s.Advance(c)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	if ended {
		h.registry.RemoveSession(assoc.SessionID)
		h.store.Remove(assoc.SessionID)
	}
}

func (h *Handler) handleSubmitAnswer(c *Client, env *protocol.Envelope) {
	assoc, ok := h.registry.Lookup(c)
	if !ok {
		h.sendError(c, "connection not identified")
		return
	}
	if assoc.IsHost {
		h.sendError(c, "host cannot submit answers")
		return
	}

	s, err := h.store.Get(assoc.SessionID)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	var p protocol.SubmitAnswer
	if err := protocol.DecodePayload(env, &p); err != nil {
		h.sendError(c, err.Error())
		return
	}

	s.SubmitAnswer(c, assoc.ParticipantID, p.AnswerIndex)
}

// resolveSession maps an identified connection back to its session,
// reporting failures to the sender.
func (h *Handler) resolveSession(c *Client) (*game.Session, bool) {
	assoc, ok := h.registry.Lookup(c)
	if !ok {
		h.sendError(c, "connection not identified")
		return nil, false
	}

	s, err := h.store.Get(assoc.SessionID)
	if err != nil {
		h.sendError(c, err.Error())
		return nil, false
	}
	return s, true
}

func (h *Handler) sendError(c *Client, message string) {
	game.Unicast(c, protocol.TypeError, protocol.ErrorMessage{Message: message})
}
