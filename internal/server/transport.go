package server

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsTransport adapts a websocket connection to the session transport.
// Writes are serialized because the receive loop and the forwarding task
// both send frames.
type wsTransport struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Receive() ([]byte, error) {
	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		// Control frames are handled by gorilla; binary frames carry
		// nothing meaningful here and are skipped.
		if messageType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (t *wsTransport) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) close() error {
	return t.conn.Close()
}
