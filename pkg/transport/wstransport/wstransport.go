// Package wstransport carries typewire exchanges over a single WebSocket
// connection. Concurrent sends are multiplexed: each frame is a 16-byte
// request ID followed by the opaque envelope, and responses are paired back
// to their senders by ID. The protocol layer above sees only one
// bytes-in/bytes-out call per send.
package wstransport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/typewire-dev/typewire/pkg/peer"
)

// idSize is the length of the request ID prefix on every frame.
const idSize = 16

// ErrClosed is returned by in-flight sends when the connection is closed.
var ErrClosed = errors.New("wstransport: connection closed")

// Client multiplexes sends over one WebSocket connection. Safe for
// concurrent use.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uuid.UUID]chan result
	closed  bool
	err     error
}

type result struct {
	data []byte
	err  error
}

// Dial connects to a wstransport server at url (ws:// or wss://).
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wstransport: dial %s: %w", url, err)
	}
	c := &Client{
		conn:    conn,
		pending: make(map[uuid.UUID]chan result),
	}
	go c.readLoop()
	return c, nil
}

// Transport returns the peer.Transport performing one paired exchange per
// call over the shared connection.
func (c *Client) Transport() peer.Transport {
	return c.roundTrip
}

func (c *Client) roundTrip(ctx context.Context, req []byte) ([]byte, error) {
	id := uuid.New()
	ch := make(chan result, 1)

	c.mu.Lock()
	if c.closed {
		err := c.err
		c.mu.Unlock()
		if err == nil {
			err = ErrClosed
		}
		return nil, err
	}
	c.pending[id] = ch
	c.mu.Unlock()

	frame := make([]byte, idSize+len(req))
	copy(frame, id[:])
	copy(frame[idSize:], req)

	c.writeMu.Lock()
	err := c.conn.WriteMessage(websocket.BinaryMessage, frame)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("wstransport: write: %w", err)
	}

	select {
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case res := <-ch:
		return res.data, res.err
	}
}

func (c *Client) forget(id uuid.UUID) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop pairs inbound frames with pending sends until the connection
// fails or closes.
func (c *Client) readLoop() {
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		if len(frame) < idSize {
			c.fail(fmt.Errorf("wstransport: short frame (%d bytes)", len(frame)))
			return
		}
		var id uuid.UUID
		copy(id[:], frame[:idSize])

		c.mu.Lock()
		ch, ok := c.pending[id]
		delete(c.pending, id)
		c.mu.Unlock()
		if ok {
			ch <- result{data: frame[idSize:]}
		}
	}
}

// fail closes the client and releases every pending send with err.
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	pending := c.pending
	c.pending = make(map[uuid.UUID]chan result)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- result{err: fmt.Errorf("wstransport: %w", err)}
	}
	c.conn.Close()
}

// Close shuts the connection down. In-flight sends fail with ErrClosed.
func (c *Client) Close() error {
	c.fail(ErrClosed)
	return nil
}

// ServerOption configures a Handler.
type ServerOption func(*server)

// WithLogger sets the server's logger. Default is a no-op logger.
func WithLogger(log zerolog.Logger) ServerOption {
	return func(s *server) { s.log = log }
}

// WithUpgrader replaces the default websocket.Upgrader.
func WithUpgrader(u websocket.Upgrader) ServerOption {
	return func(s *server) { s.upgrader = u }
}

type server struct {
	recv     *peer.Receiver
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// Handler serves a Receiver over WebSocket: each inbound frame is dispatched
// on its own goroutine and the response written back under the same request
// ID, so slow handlers do not block the connection.
func Handler(r *peer.Receiver, opts ...ServerOption) http.Handler {
	s := &server{
		recv: r,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	ctx := req.Context()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		if len(frame) < idSize {
			s.log.Warn().Int("len", len(frame)).Msg("short frame dropped")
			continue
		}

		id := frame[:idSize]
		body := frame[idSize:]
		go func() {
			out, err := s.recv.ServeBytes(ctx, body)
			if err != nil {
				s.log.Error().Err(err).Msg("dispatch failed")
				return
			}
			reply := make([]byte, idSize+len(out))
			copy(reply, id)
			copy(reply[idSize:], out)

			writeMu.Lock()
			werr := conn.WriteMessage(websocket.BinaryMessage, reply)
			writeMu.Unlock()
			if werr != nil {
				s.log.Debug().Err(werr).Msg("websocket write failed")
			}
		}()
	}
}
