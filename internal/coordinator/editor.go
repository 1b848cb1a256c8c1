package coordinator

// Editor is the narrow collaborator interface each plugin's event adapter
// implements on top of its native editor API. The coordinator never talks to
// an editor except through it.
//
// Implementations are called from the coordinator's timer goroutines as well
// as from the plugin's own event thread, so they must be safe for concurrent
// use (both editor platforms dispatch these reads onto their UI thread
// internally).
type Editor interface {
	// ActiveFile returns the absolute OS-native path of the currently
	// active document, or ok=false when no editor has focus.
	ActiveFile() (path string, ok bool)

	// CaretPosition returns the zero-based caret line and column of the
	// active document.
	CaretPosition() (line, column int)

	// VisibleLineRange returns the first and last visible line of the
	// active document, or ok=false when the viewport is unknown.
	VisibleLineRange() (start, end int, ok bool)

	// LineCount returns the number of lines in the active document.
	LineCount() int

	// ScrollToLine scrolls the active document so the given line is
	// visible. The line is already clamped to the document by the caller.
	ScrollToLine(line int) error

	// HasWindowFocus reports whether the editor window holds OS focus.
	HasWindowFocus() bool

	// IsOpenElsewhere reports whether the file is still open in another
	// tab or view. Closing such a file must not emit a CLOSE record.
	IsOpenElsewhere(path string) bool
}
