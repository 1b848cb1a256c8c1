// Command idesync runs a headless endpoint of the editor sync core.
//
// The production endpoints live inside the JetBrains and VSCode plugins;
// this binary exists to exercise the core without either editor: run
// "idesync listen" in one terminal and "idesync connect" in another (or
// point a real plugin at it) and watch the state stream.
package main

import (
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags.
// Example: go build -ldflags="-X main.Version=v0.3.0" ./cmd/idesync
var Version = "dev"

const usage = `idesync - editor state sync between JetBrains and VSCode

Usage:
  idesync <command> [options]

Commands:
  listen        Run the listening endpoint (binds the sync port)
  connect       Run the connecting endpoint (dials the listener)
  probe [url]   Dial an endpoint and print every received state
  version       Print the version

Run 'idesync <command> --help' for more information on a command.
`

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprint(stdout, usage)
		return 0
	}

	switch args[1] {
	case "listen":
		return runListen(args[2:], stdout, stderr)
	case "connect":
		return runConnect(args[2:], stdout, stderr)
	case "probe":
		return runProbe(args[2:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "idesync %s\n", Version)
		return 0
	case "--help", "-h", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		fmt.Fprint(stdout, usage)
		return 1
	}
}
