package channel

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/errors"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

// Listener is the accepting side of the sync channel. It binds a TCP port,
// upgrades HTTP requests at /sync to WebSocket, and holds at most one active
// peer connection: a new accept replaces (and closes) the previous one.
//
// The single-peer slot is explicit state (nil means no peer) so reconnection
// races reduce to compare-and-swap on the slot.
type Listener struct {
	addr         string
	pingInterval time.Duration

	upgrader   websocket.Upgrader
	httpServer *http.Server

	// boundAddr is the actual listen address, useful when addr requested
	// port 0.
	boundAddr string

	// mu protects peer, handler, and closed.
	mu      sync.Mutex
	peer    *peerConn
	handler Handler
	closed  bool
}

// NewListener creates a listener for the given host:port.
// Call Start to begin accepting connections.
func NewListener(addr string, pingInterval time.Duration) *Listener {
	return &Listener{
		addr:         addr,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Both editors run locally; the channel carries no secrets
			// (positions and paths only), so any origin is accepted.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetHandler registers the inbound state callback.
func (l *Listener) SetHandler(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
}

// Start binds the port and begins serving in a background goroutine.
// The listener is created synchronously so a port conflict surfaces here
// rather than inside the goroutine.
func (l *Listener) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", l.handleSync)

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeChannelListenFailed,
			"failed to listen on "+l.addr, err)
	}

	l.httpServer = &http.Server{Handler: mux}
	l.boundAddr = ln.Addr().String()

	go func() {
		log.Printf("sync listener on %s", l.boundAddr)
		if err := l.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("sync listener error: %v", err)
		}
	}()

	return nil
}

// handleSync upgrades the HTTP connection and installs it in the peer slot,
// displacing any previous peer.
func (l *Listener) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	peer := newPeerConn(uuid.NewString()[:8], conn, l.pingInterval)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		conn.Close()
		return
	}
	if prev := l.peer; prev != nil {
		// Exactly one peer at a time: the newcomer wins.
		log.Printf("[%s] replacing peer connection [%s]", peer.id, prev.id)
		prev.shutdown()
	}
	l.peer = peer
	handler := l.handler
	l.mu.Unlock()

	log.Printf("[%s] peer connected from %s", peer.id, r.RemoteAddr)

	go peer.writePump()
	go func() {
		peer.readPump(handler)

		// Compare-and-clear: only vacate the slot if it still holds this
		// connection. A replacement may already have taken it.
		l.mu.Lock()
		if l.peer == peer {
			l.peer = nil
		}
		l.mu.Unlock()

		log.Printf("[%s] peer disconnected", peer.id)
	}()
}

// Send transmits a state to the connected peer, dropping it when no peer
// is attached.
func (l *Listener) Send(s state.EditorState) {
	l.mu.Lock()
	peer := l.peer
	l.mu.Unlock()

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

// Addr returns the bound listen address. Valid after Start.
func (l *Listener) Addr() string {
	return l.boundAddr
}

// Connected reports whether a peer is currently attached.
func (l *Listener) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peer != nil
}

// Close releases the listening socket and drops the active peer.
// Idempotent: subsequent calls return nil immediately.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	if l.peer != nil {
		l.peer.shutdown()
		l.peer = nil
	}
	l.mu.Unlock()

	if l.httpServer != nil {
		return l.httpServer.Close()
	}
	return nil
}
