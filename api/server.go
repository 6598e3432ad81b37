package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/wricardo/livequiz/quiz/config"
	"github.com/wricardo/livequiz/quiz/game"
	"github.com/wricardo/livequiz/quiz/session"
	"github.com/wricardo/livequiz/transport/websocket"
)

// Server is the HTTP server for the coordinator.
type Server struct {
	store   *session.Manager
	decks   *config.Manager
	handler *websocket.Handler
	router  *mux.Router
}

// NewServer creates the HTTP server over the given store, deck manager,
// and websocket lifecycle handler.
func NewServer(store *session.Manager, decks *config.Manager, handler *websocket.Handler) *Server {
	s := &Server{
		store:   store,
		decks:   decks,
		handler: handler,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Deck listing
	api.HandleFunc("/decks", s.handleListDecks).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handler.ServeWS)

	// Health
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.store.Count(),
	})
}

// handleCreateSession pre-provisions a session, optionally with a chosen
// deck. Most sessions are created implicitly by HOST_JOIN; this exists for
// operators that want the id and join code ahead of time.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID   string `json:"session_id,omitempty"`
		SessionCode string `json:"session_code,omitempty"`
		DeckID      string `json:"deck_id,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	sess, err := s.store.Create(req.SessionID, req.SessionCode, req.DeckID)
	if err != nil {
		if errors.Is(err, session.ErrSessionAlreadyExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, config.ErrDeckNotFound) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.List()

	infos := make([]*game.Info, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Snapshot())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(infos),
		"sessions": infos,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// handleDeleteSession force-ends a session: connected clients get
// GAME_ENDED and are closed, same as when the host departs.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.handler.EndSession(id, game.EndReasonAdmin); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session ended",
		"id":      id,
	})
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.decks.ListDecks()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(decks),
		"decks": decks,
	})
}
