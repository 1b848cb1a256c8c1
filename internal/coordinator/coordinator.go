// Package coordinator turns a storm of raw local editor events into a
// minimal, well-ordered stream of outbound EditorState records, and applies
// inbound records to the local editor without feedback loops.
//
// Outbound, there are two paths: discrete OPEN/CLOSE events publish
// immediately, while high-frequency NAVIGATE/SCROLL events coalesce in a
// per-file debounce slot where the newest event replaces the pending one
// (last-event-wins) until the delay elapses uninterrupted.
//
// Self-echo prevention is structural: the coordinator only ever receives, as
// inbound, records that arrived over the channel from the peer, never its own
// outbound stream. The source check in Apply is a belt on top of that
// discipline.
package coordinator

import (
	"log"
	"sync"
	"time"

	apperrors "github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/errors"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

// Publisher receives outbound records. In production it is the sync
// channel's Send.
type Publisher func(state.EditorState)

// PeerActivityHandler is notified for every inbound record so the plugin can
// indicate which editor is currently live.
type PeerActivityHandler func(source state.Source, active bool)

// debounceEntry is one pending per-file timer. The generation number lets a
// late-firing stale callback recognize that its entry was replaced or
// cancelled: fire compares generations and removes only its own entry, never
// a successor's.
type debounceEntry struct {
	gen   uint64
	timer *time.Timer
	state state.EditorState
}

// Coordinator owns the debounce timer map and the focus flag. The map is the
// only mutable shared structure in the core; it never leaves this struct.
type Coordinator struct {
	source  state.Source
	editor  Editor
	publish Publisher
	delay   time.Duration

	// mu guards pending, gen, focused, disposed, and peerActivity.
	// Every lookup-cancel-insert on the timer map happens under it.
	mu           sync.Mutex
	pending      map[string]*debounceEntry
	gen          uint64
	focused      bool
	disposed     bool
	peerActivity PeerActivityHandler
}

// New creates a coordinator for one endpoint. source is the local side's
// identity, editor the adapter over the native editor API, publish the
// outbound sink, and delay the NAVIGATE/SCROLL coalescing window.
func New(source state.Source, editor Editor, publish Publisher, delay time.Duration) *Coordinator {
	return &Coordinator{
		source:  source,
		editor:  editor,
		publish: publish,
		delay:   delay,
		pending: make(map[string]*debounceEntry),
	}
}

// SetPeerActivityHandler registers the inbound liveness callback.
func (c *Coordinator) SetPeerActivityHandler(h PeerActivityHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerActivity = h
}

// UpdateState publishes a record immediately, bypassing the debounce window.
// Used for discrete, low-frequency actions (OPEN, CLOSE, focus changes).
// A CLOSE first cancels any pending debounced record for its path: a closed
// file must not emit a stale deferred NAVIGATE or SCROLL afterwards.
func (c *Coordinator) UpdateState(s state.EditorState) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	if s.Action == state.ActionClose {
		c.cancelLocked(state.NormalizePath(s.FilePath))
	}
	pub := c.publish
	c.mu.Unlock()

	if pub != nil {
		pub(s)
	}
}

// DebouncedUpdateState schedules a record for publication after the
// coalescing delay. A newer record for the same file replaces the pending
// one and restarts the delay; each file has at most one outstanding timer.
func (c *Coordinator) DebouncedUpdateState(s state.EditorState) {
	key := state.NormalizePath(s.FilePath)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}

	if prev, ok := c.pending[key]; ok {
		prev.timer.Stop()
	}

	c.gen++
	entry := &debounceEntry{gen: c.gen, state: s}
	gen := c.gen
	entry.timer = time.AfterFunc(c.delay, func() {
		c.fire(key, gen)
	})
	c.pending[key] = entry
}

// fire runs when a debounce timer elapses uninterrupted. It removes its own
// entry via compare-and-remove (a stale callback whose entry was replaced or
// cancelled must not touch the successor) and only then publishes, so a
// panicking publisher cannot leak the slot.
func (c *Coordinator) fire(key string, gen uint64) {
	c.mu.Lock()
	entry, ok := c.pending[key]
	if !ok || entry.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	s := entry.state
	pub := c.publish
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("debounced publish failed for %s: %v", key, r)
		}
	}()

	if pub != nil {
		pub(s)
	}
}

// cancelLocked stops and removes the pending timer for a normalized path.
// Caller holds mu.
func (c *Coordinator) cancelLocked(key string) {
	if entry, ok := c.pending[key]; ok {
		entry.timer.Stop()
		delete(c.pending, key)
	}
}

// pendingCount reports the number of outstanding debounce timers.
func (c *Coordinator) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Dispose cancels every pending timer and clears the map. Safe to call more
// than once; after disposal all updates are ignored.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.pending {
		entry.timer.Stop()
		delete(c.pending, key)
	}
	c.disposed = true
}

// HandleFileOpened reacts to the file-opened adapter hook with an immediate
// OPEN record carrying the current caret.
func (c *Coordinator) HandleFileOpened(path string) {
	line, column := c.editor.CaretPosition()
	c.UpdateState(state.New(state.ActionOpen, path, line, column, c.source, c.editor.HasWindowFocus()))
}

// HandleFileClosed reacts to the file-closed adapter hook. A file still open
// in another tab or view produces no record at all.
func (c *Coordinator) HandleFileClosed(path string) {
	if c.editor.IsOpenElsewhere(path) {
		return
	}
	c.UpdateState(state.NewClose(path, c.source, c.editor.HasWindowFocus()))
}

// HandleCaretMoved reacts to the selection-changed adapter hook with a
// debounced NAVIGATE record. The visible range rides along when known so the
// peer can reproduce the viewport, not just the caret line.
func (c *Coordinator) HandleCaretMoved(path string, line, column int) {
	s := state.New(state.ActionNavigate, path, line, column, c.source, c.editor.HasWindowFocus())
	if start, end, ok := c.editor.VisibleLineRange(); ok {
		s = s.WithVisibleRange(start, end)
	}
	c.DebouncedUpdateState(s)
}

// HandleVisibleRangeChanged reacts to the visible-range-changed adapter hook
// with a debounced SCROLL record.
func (c *Coordinator) HandleVisibleRangeChanged(path string, start, end int) {
	line, column := c.editor.CaretPosition()
	s := state.New(state.ActionScroll, path, line, column, c.source, c.editor.HasWindowFocus())
	s = s.WithVisibleRange(start, end)
	c.DebouncedUpdateState(s)
}

// HandleFocusChanged tracks OS window focus and immediately re-sends the
// current full state so the peer learns which side is live. Focus changes
// are discrete events and never debounced.
func (c *Coordinator) HandleFocusChanged(focused bool) {
	c.mu.Lock()
	c.focused = focused
	c.mu.Unlock()

	path, ok := c.editor.ActiveFile()
	if !ok {
		// No active document; there is no position to report.
		return
	}

	line, column := c.editor.CaretPosition()
	s := state.New(state.ActionNavigate, path, line, column, c.source, focused)
	if start, end, rok := c.editor.VisibleLineRange(); rok {
		s = s.WithVisibleRange(start, end)
	}
	c.UpdateState(s)
}

// WindowFocused reports the last observed focus state.
func (c *Coordinator) WindowFocused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// Apply applies an inbound record from the peer to the local editor.
//
// A record is ignored (nil error) when its path does not match the active
// local file; the core never opens files as a side effect. A record whose
// source equals the local side indicates a channel discipline violation and
// is rejected with apply.self_echo.
func (c *Coordinator) Apply(s state.EditorState) error {
	if s.Source == c.source {
		return apperrors.New(apperrors.CodeApplySelfEcho,
			"inbound state carries local source "+string(s.Source))
	}

	// Liveness reaches the plugin for every inbound record, including
	// CLOSE and records for files that are not open here.
	c.mu.Lock()
	notify := c.peerActivity
	c.mu.Unlock()
	if notify != nil {
		notify(s.Source, s.IsActive)
	}

	// CLOSE carries identity and liveness only; no editor mutation.
	if s.Action == state.ActionClose {
		return nil
	}

	active, ok := c.editor.ActiveFile()
	if !ok || !state.CompatiblePath(active, s.FilePath) {
		return nil
	}

	return c.applyScroll(s)
}

// applyScroll moves the local viewport to the inbound target line, clamped
// to the local document. The local copy may be shorter than the peer's (an
// unsaved edit on one side), so out-of-range targets clamp to the last valid
// line rather than erroring; a document with no lines is a no-op.
func (c *Coordinator) applyScroll(s state.EditorState) error {
	target := s.Line
	if s.HasVisibleRange() {
		target = *s.VisibleRangeStart
	}

	maxLine := c.editor.LineCount() - 1
	if maxLine < 0 {
		return nil
	}
	if target > maxLine {
		target = maxLine
	}
	if target < 0 {
		return nil
	}

	if err := c.editor.ScrollToLine(target); err != nil {
		return apperrors.EditorFailed("scroll", err)
	}
	return nil
}
