package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/channel"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/config"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/mdns"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

// discoverTimeout bounds the mDNS browse when --discover is given.
const discoverTimeout = 3 * time.Second

// runConnect runs the connecting endpoint headless: it dials the listener
// (retrying forever) and prints every state it receives. With --discover the
// listener's address is found via mDNS first, falling back to the configured
// host and port when nothing answers.
func runConnect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("connect", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file (default ~/.idesync/config.toml)")
	host := fs.String("host", "", "Listener host (overrides config)")
	port := fs.Int("port", 0, "Sync port (overrides config)")
	discover := fs.Bool("discover", false, "Discover the listener via mDNS")
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if !cfg.Enabled {
		fmt.Fprintln(stdout, "Sync is disabled in the configuration")
		return 0
	}

	setupLogging(cfg)

	if *discover {
		ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout)
		endpoints, err := mdns.Discover(ctx)
		cancel()
		switch {
		case err != nil:
			fmt.Fprintf(stderr, "Warning: discovery failed: %v\n", err)
		case len(endpoints) > 0:
			cfg.Host = endpoints[0].Host
			cfg.Port = endpoints[0].Port
			fmt.Fprintf(stdout, "Discovered %s at %s:%d\n",
				endpoints[0].Name, endpoints[0].Host, endpoints[0].Port)
		default:
			fmt.Fprintln(stderr, "Warning: no endpoints discovered, using configured address")
		}
	}

	c := channel.NewConnector(cfg.DialURL(), cfg.ReconnectInterval(), cfg.PingInterval())
	c.SetHandler(func(s state.EditorState) {
		printState(stdout, s)
	})
	c.Start()
	defer c.Close()

	fmt.Fprintf(stdout, "Connecting to %s (Ctrl-C to stop)\n", cfg.DialURL())
	waitForInterrupt()
	return 0
}
