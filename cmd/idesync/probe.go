package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

// runProbe is a one-shot test client: dial an endpoint, print every received
// state until interrupted. Unlike connect it performs no retry, making it
// useful for checking whether a listener is actually up.
func runProbe(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	url := "ws://127.0.0.1:3000/sync"
	if fs.NArg() > 0 {
		url = fs.Arg(0)
	}

	fmt.Fprintf(stdout, "Connecting to %s...\n", url)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to connect: %v\n", err)
		return 1
	}
	defer conn.Close()

	fmt.Fprintln(stdout, "Connected! Waiting for states...")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	received := 0

	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					fmt.Fprintf(stderr, "Read error: %v\n", err)
				}
				return
			}

			received++

			s, err := state.Decode(data)
			if err != nil {
				fmt.Fprintf(stdout, "[%d] raw: %s\n", received, string(data))
				continue
			}
			printState(stdout, s)
		}
	}()

	select {
	case <-done:
		fmt.Fprintln(stdout, "Connection closed")
	case <-interrupt:
		fmt.Fprintln(stdout, "Interrupted")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}

	fmt.Fprintf(stdout, "Total states received: %d\n", received)
	return 0
}
