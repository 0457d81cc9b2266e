package transport

import (
	"context"
	"io"
	"sync"

	"github.com/coder/websocket"

	"github.com/guitaripod/streamkit/types"
)

// WebSocketSource adapts a coder/websocket connection into a Source.
// Each text message is one chunk; a normal closure ends the stream.
type WebSocketSource struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// NewWebSocketSource wraps an established WebSocket connection.
func NewWebSocketSource(conn *websocket.Conn) *WebSocketSource {
	return &WebSocketSource{conn: conn}
}

// DialWebSocketSource dials url and returns a Source over the resulting
// connection.
func DialWebSocketSource(ctx context.Context, url string) (*WebSocketSource, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "websocket dial").
			WithCause(err).
			WithRetryable(true)
	}
	return NewWebSocketSource(conn), nil
}

// Recv reads the next text message. A normal or going-away closure maps
// to io.EOF; every other failure is a transport error.
func (s *WebSocketSource) Recv(ctx context.Context) (string, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", io.EOF
	}

	_, data, err := s.conn.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return "", io.EOF
		}
		return "", types.NewError(types.ErrTransport, "websocket read").
			WithCause(err).
			WithRetryable(true)
	}
	return string(data), nil
}

// Close closes the underlying connection. Safe to call more than once.
func (s *WebSocketSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close(websocket.StatusNormalClosure, "closing")
}
