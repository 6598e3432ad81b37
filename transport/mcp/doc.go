// Package mcp exposes operator tooling over the Model Context Protocol.
// The client is a thin proxy: every tool call is translated into a request
// against the coordinator's own REST API, so MCP clients observe exactly
// what any other operator would.
package mcp
