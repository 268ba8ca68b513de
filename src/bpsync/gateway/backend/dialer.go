package backend

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.lsp.dev/jsonrpc2"
)

// Dialer opens a JSON-RPC stream to a backend.
type Dialer interface {
	Dial(ctx context.Context) (jsonrpc2.Stream, error)
	String() string
}

// TCPDialer connects over TCP using header-framed JSON-RPC.
type TCPDialer struct {
	Address string
}

// Dial implements Dialer.
func (d TCPDialer) Dial(ctx context.Context) (jsonrpc2.Stream, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, err
	}
	return jsonrpc2.NewStream(conn), nil
}

func (d TCPDialer) String() string {
	return "tcp://" + d.Address
}

// WebSocketDialer connects over a WebSocket carrying one JSON-RPC message per frame.
type WebSocketDialer struct {
	URL    string
	Header http.Header
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context) (jsonrpc2.Stream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		return nil, err
	}
	return NewWebSocketStream(conn), nil
}

func (d WebSocketDialer) String() string {
	return d.URL
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context) (jsonrpc2.Stream, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context) (jsonrpc2.Stream, error) {
	return f(ctx)
}

func (f DialerFunc) String() string {
	return "func"
}

type wsStream struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

// NewWebSocketStream frames JSON-RPC messages as WebSocket text messages.
func NewWebSocketStream(conn *websocket.Conn) jsonrpc2.Stream {
	return &wsStream{conn: conn}
}

func (s *wsStream) Read(ctx context.Context) (jsonrpc2.Message, int64, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, 0, err
	}
	msg, err := jsonrpc2.DecodeMessage(data)
	return msg, int64(len(data)), err
}

func (s *wsStream) Write(ctx context.Context, msg jsonrpc2.Message) (int64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	// gorilla connections allow one concurrent writer.
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
		defer s.conn.SetWriteDeadline(time.Time{})
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
