// Package state defines the EditorState record exchanged between the two
// editor endpoints, its JSON wire encoding, and the cross-platform path
// comparison used to match files produced on different operating systems.
//
// EditorState is the single message type on the wire. Each record is
// constructed fresh for one editor event, optionally held in a debounce slot
// by the coordinator, transmitted once, and discarded.
package state

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/errors"
)

// Action identifies the kind of editor event a state record describes.
type Action string

const (
	// ActionOpen is sent when a file becomes the active editor document.
	ActionOpen Action = "OPEN"

	// ActionNavigate is sent when the caret moves within the active file.
	ActionNavigate Action = "NAVIGATE"

	// ActionScroll is sent when the visible viewport of the active file changes.
	ActionScroll Action = "SCROLL"

	// ActionClose is sent when a file is closed in every tab and view.
	// A CLOSE record carries only identity (file path) and liveness
	// (isActive); line and column are zero and scroll fields are omitted.
	ActionClose Action = "CLOSE"
)

// Source identifies which editor family produced a state record.
// A side must never apply a record whose source equals its own.
type Source string

const (
	// SourceJetBrains marks records produced by the JetBrains-family IDE.
	SourceJetBrains Source = "JETBRAINS"

	// SourceVSCode marks records produced by the VSCode-family editor.
	SourceVSCode Source = "VSCODE"
)

// EditorState is the record exchanged between the two endpoints.
//
// The JSON field names form the wire protocol and must stay stable; both
// plugin sides decode against these exact keys. Optional fields use pointers
// so that zero is distinguishable from absent (line 0 is the top of a file).
type EditorState struct {
	// Action is the event kind: OPEN, NAVIGATE, SCROLL, or CLOSE.
	Action Action `json:"action"`

	// FilePath is the absolute, OS-native path of the file on the
	// producing side. Receivers compare it with CompatiblePath rather
	// than string equality because the two sides may run on different
	// operating systems.
	FilePath string `json:"filePath"`

	// Line is the zero-based caret line.
	Line int `json:"line"`

	// Column is the zero-based caret column.
	Column int `json:"column"`

	// Source identifies the producing editor family.
	Source Source `json:"source"`

	// IsActive reports whether the producing window held OS focus when
	// the record was created. The peer may use it to indicate which
	// editor is currently live.
	IsActive bool `json:"isActive"`

	// Timestamp is a monotonically increasing wall-clock stamp in
	// milliseconds, rendered as a decimal string.
	Timestamp string `json:"timestamp"`

	// ScrollTop and ScrollLeft are pixel offsets local to the producing
	// editor. They are not portable across editors and receivers are free
	// to ignore them.
	ScrollTop  *int `json:"scrollTop,omitempty"`
	ScrollLeft *int `json:"scrollLeft,omitempty"`

	// VisibleRangeStart and VisibleRangeEnd are the first and last visible
	// line numbers. Unlike the pixel offsets they are portable and are
	// what the receiving side uses to reproduce the viewport. For SCROLL
	// records they are present together or absent together, never one
	// without the other.
	VisibleRangeStart *int `json:"visibleRangeStart,omitempty"`
	VisibleRangeEnd   *int `json:"visibleRangeEnd,omitempty"`
}

// New creates a state record for the given event with a fresh timestamp.
func New(action Action, filePath string, line, column int, source Source, isActive bool) EditorState {
	return EditorState{
		Action:    action,
		FilePath:  filePath,
		Line:      line,
		Column:    column,
		Source:    source,
		IsActive:  isActive,
		Timestamp: NextTimestamp(),
	}
}

// NewClose creates a CLOSE record for the given path. Per the protocol,
// CLOSE carries no position or viewport information.
func NewClose(filePath string, source Source, isActive bool) EditorState {
	return New(ActionClose, filePath, 0, 0, source, isActive)
}

// WithVisibleRange returns a copy of the record carrying the given visible
// line range. Both bounds are set together to keep the pairing invariant.
func (s EditorState) WithVisibleRange(start, end int) EditorState {
	s.VisibleRangeStart = &start
	s.VisibleRangeEnd = &end
	return s
}

// WithScrollOffsets returns a copy of the record carrying producer-local
// pixel scroll offsets.
func (s EditorState) WithScrollOffsets(top, left int) EditorState {
	s.ScrollTop = &top
	s.ScrollLeft = &left
	return s
}

// HasVisibleRange reports whether both range bounds are present.
func (s EditorState) HasVisibleRange() bool {
	return s.VisibleRangeStart != nil && s.VisibleRangeEnd != nil
}

// Validate checks the record against the protocol invariants.
// It is called on every decoded inbound record so a malformed peer
// message is rejected before it reaches the coordinator.
func (s EditorState) Validate() error {
	switch s.Action {
	case ActionOpen, ActionNavigate, ActionScroll, ActionClose:
	default:
		return apperrors.New(apperrors.CodeStateInvalidAction,
			"unknown action "+strconv.Quote(string(s.Action)))
	}

	switch s.Source {
	case SourceJetBrains, SourceVSCode:
	default:
		return apperrors.New(apperrors.CodeStateInvalidSource,
			"unknown source "+strconv.Quote(string(s.Source)))
	}

	if s.FilePath == "" {
		return apperrors.New(apperrors.CodeStateInvalidPath, "filePath is required")
	}

	if s.Line < 0 || s.Column < 0 {
		return apperrors.New(apperrors.CodeStateInvalidRange, "line and column must be >= 0")
	}

	// Range bounds travel as a pair.
	if (s.VisibleRangeStart == nil) != (s.VisibleRangeEnd == nil) {
		return apperrors.New(apperrors.CodeStateInvalidRange,
			"visibleRangeStart and visibleRangeEnd must be present together")
	}
	if s.HasVisibleRange() && *s.VisibleRangeStart > *s.VisibleRangeEnd {
		return apperrors.New(apperrors.CodeStateInvalidRange,
			"visibleRangeStart must not exceed visibleRangeEnd")
	}

	if s.Action == ActionClose {
		if s.Line != 0 || s.Column != 0 {
			return apperrors.New(apperrors.CodeStateInvalidRange,
				"CLOSE must carry line 0 and column 0")
		}
		if s.HasVisibleRange() || s.ScrollTop != nil || s.ScrollLeft != nil {
			return apperrors.New(apperrors.CodeStateInvalidRange,
				"CLOSE must not carry scroll fields")
		}
	}

	return nil
}

// Encode serializes the record to its JSON wire form.
func (s EditorState) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses and validates a wire message. The returned error carries a
// stable code; callers log it and skip the message without closing the
// connection.
func Decode(data []byte) (EditorState, error) {
	var s EditorState
	if err := json.Unmarshal(data, &s); err != nil {
		return EditorState{}, apperrors.Wrap(apperrors.CodeChannelInvalidMessage,
			"malformed state message", err)
	}
	if err := s.Validate(); err != nil {
		return EditorState{}, err
	}
	return s, nil
}

// Timestamps must increase monotonically per producing side even when the
// wall clock steps backwards (NTP adjustment, VM resume). We remember the
// last issued stamp and never go below lastStamp+1.
var (
	stampMu   sync.Mutex
	lastStamp int64
)

// NextTimestamp returns the next wall-clock millisecond stamp as a decimal
// string, clamped to be strictly greater than the previously issued stamp.
func NextTimestamp() string {
	stampMu.Lock()
	defer stampMu.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastStamp {
		now = lastStamp + 1
	}
	lastStamp = now
	return strconv.FormatInt(now, 10)
}
