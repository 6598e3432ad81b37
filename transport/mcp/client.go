package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/livequiz/quiz/config"
	"github.com/wricardo/livequiz/quiz/game"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Live Quiz Coordinator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Live Quiz Coordinator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The coordinator runs live multiplayer quiz sessions: a host connection
controls each session over websocket, participants join with a short code,
and state changes fan out to every connected client.

AVAILABLE TOOLS:
- list_sessions: List all active quiz sessions
- get_session: Inspect one session (phase, roster, shared state)
- create_session: Pre-provision a session with an optional deck
- end_session: Force-end a session (clients get GAME_ENDED and are closed)
- list_decks: List available question decks`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active quiz sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session: phase, roster, shared state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Pre-provision a quiz session with an optional deck choice",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID (generated when omitted)",
				},
				"session_code": map[string]interface{}{
					"type":        "string",
					"description": "Human-facing join code (generated when omitted)",
				},
				"deck_id": map[string]interface{}{
					"type":        "string",
					"description": "Deck ID to play (default deck when omitted)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "end_session",
		Description: "Force-end a session; connected clients receive GAME_ENDED and are closed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to end",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleEndSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_decks",
		Description: "List available question decks",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListDecks)
}

// GetMCPServer returns the underlying MCP server for mounting.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall issues one request against the REST API and decodes the response.
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int          `json:"count"`
		Sessions []*game.Info `json:"sessions"`
	}

	if err := c.apiCall("GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Code: %s, Phase: %s, Players: %d, Created: %s)\n",
			s.ID, s.Code, s.Phase, len(s.Players), s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var info game.Info
	if err := c.apiCall("GET", "/api/sessions/"+sessionID, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Session %s\nCode: %s\nPhase: %s\nDeck: %s\nQuestion: %d\nShared state: %d\nPlayers:\n",
		info.ID, info.Code, info.Phase, info.DeckName, info.QuestionIndex, info.SharedState)
	for _, p := range info.Players {
		status := "offline"
		if p.Connected {
			status = "online"
		}
		result += fmt.Sprintf("- %s (%s) score=%d [%s]\n", p.DisplayName, p.ID, p.Score, status)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})

	body := map[string]string{}
	if v, _ := args["session_id"].(string); v != "" {
		body["session_id"] = v
	}
	if v, _ := args["session_code"].(string); v != "" {
		body["session_code"] = v
	}
	if v, _ := args["deck_id"].(string); v != "" {
		body["deck_id"] = v
	}

	var info game.Info
	if err := c.apiCall("POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nJoin code: %s\nDeck: %s\n", info.ID, info.Code, info.DeckName)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleEndSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	if err := c.apiCall("DELETE", "/api/sessions/"+sessionID, nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Session %s ended", sessionID)), nil
}

func (c *Client) handleListDecks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                `json:"count"`
		Decks []*config.DeckInfo `json:"decks"`
	}

	if err := c.apiCall("GET", "/api/decks", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Decks (%d):\n\n", response.Count)
	for _, d := range response.Decks {
		result += fmt.Sprintf("- %s: %s (%d questions)\n", d.DeckID, d.Name, d.Questions)
	}

	return mcp.NewToolResultText(result), nil
}
