// Package channel owns the persistent duplex WebSocket connection between
// the two editor endpoints. One side listens (Listener), the other dials with
// unlimited retry (Connector); both expose the same Channel interface to the
// coordinator.
//
// Delivery is fire-and-forget and liveness-bound: a state sent while no
// connection is open is dropped, never queued across disconnects. Transport
// errors are recovered by reconnecting and are never fatal; malformed inbound
// payloads are logged and skipped without closing the connection.
package channel

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

const (
	// writeWait is the deadline for a single WebSocket write.
	writeWait = 10 * time.Second

	// maxMessageSize caps inbound messages. A serialized EditorState is a
	// few hundred bytes; anything near this limit is garbage.
	maxMessageSize = 64 * 1024

	// sendBufferSize is the per-connection outbound buffer. The debounce
	// layer already throttles producers, so a small buffer suffices; when
	// it fills the message is dropped rather than blocking the caller.
	sendBufferSize = 64

	// inboundRate and inboundBurst rate-limit received messages to protect
	// the apply path from a misbehaving peer. Legitimate traffic is a few
	// messages per second after debouncing.
	inboundRate  = 200
	inboundBurst = 50
)

// Handler is invoked once per received, successfully decoded state,
// in receipt order.
type Handler func(state.EditorState)

// Channel is the transport contract the coordinator publishes through.
// Listener and Connector both implement it.
type Channel interface {
	// Send serializes and transmits a state on the active connection.
	// With no connection open the state is dropped.
	Send(s state.EditorState)

	// SetHandler registers the inbound state callback. It must be called
	// before Start.
	SetHandler(h Handler)

	// Connected reports whether a peer connection is currently active.
	Connected() bool

	// Close tears the channel down: releases the socket or listener,
	// cancels retry timers. Safe to call more than once.
	Close() error
}

// peerConn wraps a single WebSocket connection with the read/write pump
// machinery shared by the listener and connector sides.
type peerConn struct {
	// id correlates log lines for one connection's lifetime.
	id string

	conn *websocket.Conn

	// send is the buffered outbound queue drained by writePump.
	send chan []byte

	// done is closed to signal the pumps to shut down.
	done chan struct{}

	// once guards done so shutdown is safe from any goroutine.
	once sync.Once

	// limiter throttles inbound message handling.
	limiter *rate.Limiter

	pingInterval time.Duration
}

func newPeerConn(id string, conn *websocket.Conn, pingInterval time.Duration) *peerConn {
	return &peerConn{
		id:           id,
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
		limiter:      rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
		pingInterval: pingInterval,
	}
}

// shutdown signals the pumps to exit exactly once.
// Safe to call multiple times from different goroutines.
func (p *peerConn) shutdown() {
	p.once.Do(func() {
		close(p.done)
	})
}

// enqueue pushes an encoded message onto the outbound queue without
// blocking. Full buffer or shut-down connection means the message is
// dropped, matching the fire-and-forget delivery contract.
func (p *peerConn) enqueue(data []byte) {
	select {
	case <-p.done:
	case p.send <- data:
	default:
		log.Printf("[%s] send buffer full, dropping state", p.id)
	}
}

// writePump drains the send queue onto the WebSocket and keeps the
// connection alive with periodic pings. It owns the connection's writes;
// nothing else may call WriteMessage concurrently.
func (p *peerConn) writePump() {
	ticker := time.NewTicker(p.pingInterval)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case <-p.done:
			// Shutdown signaled; send a close frame and exit.
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[%s] write error: %v", p.id, err)
				return
			}

		case <-ticker.C:
			// Ping on an idle connection. A peer that stops answering
			// trips the read deadline in readPump and is dropped.
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads wire messages until the connection dies, decoding and
// dispatching each to the handler. It blocks; callers run it in whatever
// goroutine should observe connection death. On return the connection is
// shut down.
func (p *peerConn) readPump(handler Handler) {
	defer p.shutdown()

	// The read deadline is refreshed on every pong and every message.
	// Three missed pings in a row and the peer counts as dead.
	pongWait := 3 * p.pingInterval
	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				log.Printf("[%s] read error: %v", p.id, err)
			}
			return
		}
		p.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !p.limiter.Allow() {
			log.Printf("[%s] inbound rate exceeded, dropping message", p.id)
			continue
		}

		// Malformed payloads are logged and skipped; they never close
		// the connection.
		s, err := state.Decode(data)
		if err != nil {
			log.Printf("[%s] discarding message: %v", p.id, err)
			continue
		}

		if handler != nil {
			handler(s)
		}
	}
}
