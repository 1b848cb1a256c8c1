package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/channel"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/config"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/mdns"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

// runListen runs the listening endpoint headless: it binds the sync port,
// prints every state the peer sends, and optionally advertises itself via
// mDNS so a connector on another machine can discover it.
func runListen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file (default ~/.idesync/config.toml)")
	port := fs.Int("port", 0, "Sync port (overrides config)")
	advertise := fs.Bool("mdns", false, "Advertise the endpoint via mDNS")
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *advertise {
		cfg.MdnsEnabled = true
	}
	if !cfg.Enabled {
		fmt.Fprintln(stdout, "Sync is disabled in the configuration")
		return 0
	}

	setupLogging(cfg)

	l := channel.NewListener(cfg.ListenAddr(), cfg.PingInterval())
	l.SetHandler(func(s state.EditorState) {
		printState(stdout, s)
	})
	if err := l.Start(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer l.Close()

	if cfg.MdnsEnabled {
		adv := mdns.NewAdvertiser(mdns.Config{Port: cfg.Port, Name: cfg.MdnsName})
		if err := adv.Start(); err != nil {
			// Advertisement is best-effort; the endpoint still works
			// for anyone who knows the address.
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		} else {
			defer adv.Stop()
		}
	}

	fmt.Fprintf(stdout, "Listening on %s (Ctrl-C to stop)\n", cfg.ListenAddr())
	waitForInterrupt()
	return 0
}
