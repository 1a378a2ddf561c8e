package client

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fasthttp/websocket"

	"notesync/models"
)

// SocketClient is the realtime channel of one client.
type SocketClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

// WebSocketURL turns an http(s) base URL into the gateway URL.
func WebSocketURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func Dial(ctx context.Context, wsURL string) (*SocketClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	return &SocketClient{conn: conn}, nil
}

func (s *SocketClient) Emit(_ context.Context, change models.FieldChange) error {
	msg, err := models.EncodeFieldChange(change)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, msg)
}

// Listen hands every inbound frame to handle until the connection closes or
// ctx is done.
func (s *SocketClient) Listen(ctx context.Context, handle func([]byte)) error {
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			log.Println("Read error:", err)
			return err
		}
		handle(msg)
	}
}

func (s *SocketClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
