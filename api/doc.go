// Package api exposes the coordinator's HTTP surface: the websocket
// endpoint game clients connect to, plus a small REST API for operators to
// observe, pre-provision, and force-end sessions.
package api
