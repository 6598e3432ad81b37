package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/wricardo/livequiz/quiz/config"
	"github.com/wricardo/livequiz/quiz/game"
	"github.com/wricardo/livequiz/quiz/protocol"
	"github.com/wricardo/livequiz/quiz/registry"
	"github.com/wricardo/livequiz/quiz/session"
	"github.com/wricardo/livequiz/transport/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()

	decks, err := config.NewManager("")
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}
	store := session.NewManager(decks)
	reg := registry.New()
	handler := websocket.NewHandler(store, reg)

	server := httptest.NewServer(NewServer(store, decks, handler))
	t.Cleanup(server.Close)
	return server, store
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding response from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if status := getJSON(t, server.URL+"/healthz", &body); status != http.StatusOK {
		t.Fatalf("GET /healthz status = %d", status)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestSessionLifecycleOverREST(t *testing.T) {
	server, store := newTestServer(t)

	// Create
	reqBody := `{"session_id": "s1", "session_code": "ABCDEF"}`
	resp, err := http.Post(server.URL+"/api/sessions", "application/json", bytes.NewBufferString(reqBody))
	if err != nil {
		t.Fatalf("POST /api/sessions: %v", err)
	}
	var created game.Info
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want 201", resp.StatusCode)
	}
	if created.ID != "s1" || created.Code != "ABCDEF" || created.Phase != game.PhaseLobby {
		t.Errorf("created = %+v", created)
	}

	// Duplicate create conflicts
	resp, err = http.Post(server.URL+"/api/sessions", "application/json", bytes.NewBufferString(reqBody))
	if err != nil {
		t.Fatalf("POST /api/sessions: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate POST status = %d, want 409", resp.StatusCode)
	}

	// List
	var list struct {
		Count    int          `json:"count"`
		Sessions []*game.Info `json:"sessions"`
	}
	if status := getJSON(t, server.URL+"/api/sessions", &list); status != http.StatusOK {
		t.Fatalf("GET /api/sessions status = %d", status)
	}
	if list.Count != 1 || len(list.Sessions) != 1 {
		t.Fatalf("list = %+v", list)
	}

	// Get
	var info game.Info
	if status := getJSON(t, server.URL+"/api/sessions/s1", &info); status != http.StatusOK {
		t.Fatalf("GET /api/sessions/s1 status = %d", status)
	}
	if status := getJSON(t, server.URL+"/api/sessions/unknown", nil); status != http.StatusNotFound {
		t.Errorf("GET unknown session status = %d, want 404", status)
	}

	// Force-end
	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/sessions/s1", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/sessions/s1: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("DELETE status = %d, want 200", resp.StatusCode)
	}
	if _, err := store.Get("s1"); err == nil {
		t.Error("session still in store after DELETE")
	}

	req, _ = http.NewRequest(http.MethodDelete, server.URL+"/api/sessions/s1", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("second DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateSession_UnknownDeck(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/sessions", "application/json",
		bytes.NewBufferString(`{"deck_id": "no-such-deck"}`))
	if err != nil {
		t.Fatalf("POST /api/sessions: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListDecks(t *testing.T) {
	server, _ := newTestServer(t)

	var body struct {
		Count int                `json:"count"`
		Decks []*config.DeckInfo `json:"decks"`
	}
	if status := getJSON(t, server.URL+"/api/decks", &body); status != http.StatusOK {
		t.Fatalf("GET /api/decks status = %d", status)
	}
	if body.Count < 1 || body.Decks[0].DeckID != "default" {
		t.Errorf("decks = %+v", body)
	}
}

func TestWebSocketEndpointMounted(t *testing.T) {
	server, store := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	data, err := protocol.Encode(protocol.TypeHostJoin, protocol.HostJoin{SessionID: "S1", SessionCode: "ABCDEF"})
	if err != nil {
		t.Fatalf("encoding HOST_JOIN: %v", err)
	}
	if err := conn.WriteMessage(gorilla.TextMessage, data); err != nil {
		t.Fatalf("writing HOST_JOIN: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	var env protocol.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("reply is not valid JSON: %v", err)
	}
	if env.Type != protocol.TypePlayerListUpdate {
		t.Errorf("first reply = %s, want %s", env.Type, protocol.TypePlayerListUpdate)
	}

	if _, err := store.Get("S1"); err != nil {
		t.Errorf("session not created by HOST_JOIN: %v", err)
	}
}
