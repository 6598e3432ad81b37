package game

import (
	"log"

	"github.com/wricardo/livequiz/quiz/protocol"
)

// Unicast encodes and sends one message to a single connection. Send
// failures are logged and swallowed; a dead connection must never abort
// the operation that triggered the send.
func Unicast(c Conn, msgType string, payload any) {
	if c == nil {
		return
	}

	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Printf("Failed to encode %s message: %v", msgType, err)
		return
	}

	if err := c.Send(data); err != nil {
		log.Printf("Failed to send %s message: %v", msgType, err)
	}
}

// broadcast sends one message to the host and every participant with a live
// connection, skipping excluding. The payload is serialized once. A session
// with zero reachable recipients is a silent no-op.
//
// Callers must hold s.mu.
func (s *Session) broadcast(msgType string, payload any, excluding Conn) {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Printf("Failed to encode %s broadcast: %v", msgType, err)
		return
	}

	send := func(c Conn) {
		if c == nil || c == excluding {
			return
		}
		if err := c.Send(data); err != nil {
			log.Printf("Failed to deliver %s to session %s recipient: %v", msgType, s.ID, err)
		}
	}

	send(s.host)
	for _, p := range s.roster {
		send(p.Conn)
	}
}
