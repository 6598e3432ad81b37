package game

// Close codes handed to Conn.Close. Values follow RFC 6455 so the
// websocket transport can pass them straight through.
const (
	CloseNormal        = 1000
	CloseInternalError = 1011
)

// Conn is the minimal surface the session layer needs from a live client
// connection. Send must never block on network I/O; implementations queue
// the frame and report an error only when the connection can no longer
// accept writes. Close is idempotent.
type Conn interface {
	Send(data []byte) error
	Close(code int)
}
