package logstream

import (
	"log/slog"

	"github.com/gorilla/websocket"
)

// wsClient adapts a gorilla websocket connection to Subscriber.
type wsClient struct {
	conn *websocket.Conn
	log  *slog.Logger
}

// NewWSClient wraps conn as a Subscriber.
func NewWSClient(conn *websocket.Conn, logger *slog.Logger) Subscriber {
	return &wsClient{conn: conn, log: logger}
}

func (c *wsClient) Send(line string) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		c.log.Warn("logstream: websocket send failed", "error", err)
		_ = c.conn.Close()
		return err
	}
	return nil
}

func (c *wsClient) Close() {
	_ = c.conn.Close()
}
