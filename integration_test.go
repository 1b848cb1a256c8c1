//go:build integration
// +build integration

// End-to-end test of two complete endpoints wired the way the plugins wire
// them: editor adapter -> coordinator -> channel -> peer channel -> peer
// coordinator -> peer editor adapter. Run with: go test -tags integration .
package integration_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/channel"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/coordinator"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

// stubEditor is a minimal thread-safe Editor for end-to-end runs.
type stubEditor struct {
	mu         sync.Mutex
	activeFile string
	line       int
	column     int
	lineCount  int
	scrolledTo []int
}

func (e *stubEditor) ActiveFile() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeFile, e.activeFile != ""
}

func (e *stubEditor) CaretPosition() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.line, e.column
}

func (e *stubEditor) VisibleLineRange() (int, int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.line, e.line + 40, true
}

func (e *stubEditor) LineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lineCount
}

func (e *stubEditor) ScrollToLine(line int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scrolledTo = append(e.scrolledTo, line)
	return nil
}

func (e *stubEditor) HasWindowFocus() bool { return true }

func (e *stubEditor) IsOpenElsewhere(string) bool { return false }

func (e *stubEditor) scrolls() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.scrolledTo...)
}

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestTwoEndpointsStayInSync(t *testing.T) {
	addr := freePort(t)
	debounce := 50 * time.Millisecond

	// JetBrains side listens.
	jbEditor := &stubEditor{activeFile: "/proj/shared.go", lineCount: 200}
	jbChannel := channel.NewListener(addr, time.Second)
	jbCoord := coordinator.New(state.SourceJetBrains, jbEditor, jbChannel.Send, debounce)
	jbChannel.SetHandler(func(s state.EditorState) { jbCoord.Apply(s) })
	if err := jbChannel.Start(); err != nil {
		t.Fatalf("listener start: %v", err)
	}
	defer jbChannel.Close()
	defer jbCoord.Dispose()

	// VSCode side connects.
	vsEditor := &stubEditor{activeFile: "/proj/shared.go", lineCount: 200}
	vsChannel := channel.NewConnector("ws://"+addr+"/sync", 50*time.Millisecond, time.Second)
	vsCoord := coordinator.New(state.SourceVSCode, vsEditor, vsChannel.Send, debounce)
	vsChannel.SetHandler(func(s state.EditorState) { vsCoord.Apply(s) })
	vsChannel.Start()
	defer vsChannel.Close()
	defer vsCoord.Dispose()

	waitFor(t, 3*time.Second, vsChannel.Connected, "endpoints never connected")
	waitFor(t, 3*time.Second, jbChannel.Connected, "listener never saw the peer")

	// A caret storm on the JetBrains side coalesces into one NAVIGATE
	// that scrolls the VSCode side.
	for line := 10; line <= 14; line++ {
		jbCoord.HandleCaretMoved("/proj/shared.go", line, 0)
	}
	waitFor(t, 3*time.Second, func() bool { return len(vsEditor.scrolls()) > 0 },
		"VSCode side never scrolled")
	if got := vsEditor.scrolls(); len(got) != 1 || got[0] != 14 {
		t.Errorf("VSCode scrolls = %v, want [14]", got)
	}
	if len(jbEditor.scrolls()) != 0 {
		t.Errorf("JetBrains side scrolled from its own events: %v", jbEditor.scrolls())
	}

	// And the reverse direction.
	vsCoord.HandleVisibleRangeChanged("/proj/shared.go", 80, 120)
	waitFor(t, 3*time.Second, func() bool { return len(jbEditor.scrolls()) > 0 },
		"JetBrains side never scrolled")
	if got := jbEditor.scrolls(); got[len(got)-1] != 80 {
		t.Errorf("JetBrains scrolls = %v, want last 80", got)
	}

	// CLOSE after a pending caret move suppresses the stale NAVIGATE.
	before := len(vsEditor.scrolls())
	jbCoord.HandleCaretMoved("/proj/shared.go", 99, 0)
	jbCoord.HandleFileClosed("/proj/shared.go")
	time.Sleep(4 * debounce)
	if got := vsEditor.scrolls(); len(got) != before {
		t.Errorf("stale debounced state leaked after CLOSE: %v", got[before:])
	}
}
