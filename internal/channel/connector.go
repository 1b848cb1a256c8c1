package channel

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/errors"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

// Connector is the dialing side of the sync channel. It dials the listener's
// WebSocket URL with unlimited retry at a fixed interval, and whenever the
// established connection dies it goes straight back to dialing. Close cancels
// the retry loop.
type Connector struct {
	url               string
	reconnectInterval time.Duration
	pingInterval      time.Duration

	// ctx/cancel bound the dial-retry loop's lifetime.
	ctx    context.Context
	cancel context.CancelFunc

	// mu protects peer, handler, started, and closed.
	mu      sync.Mutex
	peer    *peerConn
	handler Handler
	started bool
	closed  bool

	// done is closed when the run loop has fully exited.
	done chan struct{}
}

// NewConnector creates a connector for the given ws:// URL.
// Call Start to begin dialing.
func NewConnector(url string, reconnectInterval, pingInterval time.Duration) *Connector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connector{
		url:               url,
		reconnectInterval: reconnectInterval,
		pingInterval:      pingInterval,
		ctx:               ctx,
		cancel:            cancel,
		done:              make(chan struct{}),
	}
}

// SetHandler registers the inbound state callback.
func (c *Connector) SetHandler(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Start launches the dial-and-pump loop in a background goroutine.
// It never fails synchronously; connection errors are retried forever
// until Close is called.
func (c *Connector) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run()
}

// run alternates between dialing (with constant-interval backoff) and
// pumping an established connection until it dies.
func (c *Connector) run() {
	defer close(c.done)

	for {
		conn, err := c.dial()
		if err != nil {
			// Only context cancellation ends the retry loop.
			return
		}

		peer := newPeerConn(uuid.NewString()[:8], conn, c.pingInterval)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			peer.shutdown()
			conn.Close()
			return
		}
		c.peer = peer
		handler := c.handler
		c.mu.Unlock()

		log.Printf("[%s] connected to %s", peer.id, c.url)

		go peer.writePump()

		// Block here until the connection dies, then vacate the slot
		// and dial again.
		peer.readPump(handler)

		c.mu.Lock()
		if c.peer == peer {
			c.peer = nil
		}
		closed := c.closed
		c.mu.Unlock()

		if closed {
			return
		}
		log.Printf("[%s] connection lost, reconnecting", peer.id)
	}
}

// dial attempts the WebSocket handshake until it succeeds or the connector
// is closed. The interval between attempts is fixed; the listener side may
// simply not be running yet, and a few seconds of patience is the right
// behavior rather than exponential growth into minutes.
func (c *Connector) dial() (*websocket.Conn, error) {
	var conn *websocket.Conn

	operation := func() error {
		ws, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.url, nil)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeChannelDialFailed,
				"dial "+c.url, err)
		}
		conn = ws
		return nil
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(c.reconnectInterval), c.ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return conn, nil
}

// Send transmits a state to the listener, dropping it when not connected.
func (c *Connector) Send(s state.EditorState) {
	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()

	if peer == nil {
		return
	}

	data, err := s.Encode()
	if err != nil {
		log.Printf("failed to encode state: %v", err)
		return
	}
	peer.enqueue(data)
}

// Connected reports whether a connection is currently established.
func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer != nil
}

// Close cancels the retry loop and drops the active connection, waiting for
// the run loop to exit. Idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	if c.closed {
		started := c.started
		c.mu.Unlock()
		if started {
			<-c.done
		}
		return nil
	}
	c.closed = true
	started := c.started
	peer := c.peer
	c.peer = nil
	c.mu.Unlock()

	c.cancel()
	if peer != nil {
		peer.shutdown()
	}
	if started {
		<-c.done
	}
	return nil
}
