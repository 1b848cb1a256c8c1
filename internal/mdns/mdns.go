// Package mdns provides optional mDNS/Bonjour advertisement and discovery
// of the sync listener endpoint.
//
// When enabled, the listening side advertises itself on the local network
// using DNS-SD so the connecting side can find it without a configured host
// and port. This is opt-in: both editors normally run on the same machine
// and dial loopback. Advertisement reveals only presence, a name, and the
// port; the channel itself carries no file contents.
package mdns

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"

	apperrors "github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/errors"
)

// ServiceType is the DNS-SD service type for sync listeners.
const ServiceType = "_idesync._tcp"

// ProtocolVersion identifies the wire protocol version for compatibility.
const ProtocolVersion = "1"

// Config holds configuration for mDNS advertisement.
type Config struct {
	// Port is the sync listener port to advertise (e.g., 3000).
	Port int

	// Name is a human-readable instance name for this endpoint.
	// Defaults to the system hostname if empty.
	Name string
}

// Advertiser manages DNS-SD registration for the listening side.
type Advertiser struct {
	config Config
	server *zeroconf.Server
	mu     sync.Mutex
}

// NewAdvertiser creates a new mDNS advertiser with the given configuration.
func NewAdvertiser(cfg Config) *Advertiser {
	return &Advertiser{config: cfg}
}

// Start begins advertising the service. Safe to call multiple times;
// subsequent calls are no-ops while running.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	name := a.config.Name
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			name = "idesync"
		} else {
			name = hostname
		}
	}

	txtRecords := []string{
		fmt.Sprintf("version=%s", ProtocolVersion),
		fmt.Sprintf("name=%s", name),
	}

	server, err := zeroconf.Register(
		name,
		ServiceType,
		"local.",
		a.config.Port,
		txtRecords,
		nil, // all network interfaces
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDiscoveryFailed, "mdns register", err)
	}

	a.server = server
	return nil
}

// Stop stops the advertisement and unregisters the service. Safe to call
// multiple times or on an advertiser that was never started.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// IsRunning returns true if the advertiser is currently registered.
func (a *Advertiser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// Endpoint is a sync listener found via discovery.
type Endpoint struct {
	// Name is the advertised instance name.
	Name string

	// Host is the IP address, IPv4 preferred.
	Host string

	// Port is the advertised listener port.
	Port int

	// Version is the advertised protocol version.
	Version string
}

// Discover browses the local network for sync listeners until the context
// expires, returning every endpoint seen. The connector uses the first
// result and falls back to its configured host and port when none appear.
func Discover(ctx context.Context) ([]Endpoint, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDiscoveryFailed, "mdns resolver", err)
	}

	var (
		endpoints []Endpoint
		mu        sync.Mutex
		wg        sync.WaitGroup
	)

	entries := make(chan *zeroconf.ServiceEntry)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			ep := Endpoint{
				Name: entry.Instance,
				Port: entry.Port,
			}

			if len(entry.AddrIPv4) > 0 {
				ep.Host = entry.AddrIPv4[0].String()
			} else if len(entry.AddrIPv6) > 0 {
				ep.Host = entry.AddrIPv6[0].String()
			}

			for _, txt := range entry.Text {
				if v, ok := strings.CutPrefix(txt, "version="); ok {
					ep.Version = v
				}
			}

			mu.Lock()
			endpoints = append(endpoints, ep)
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, "local.", entries); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDiscoveryFailed, "mdns browse", err)
	}

	// Browse closes the entries channel when the context expires.
	<-ctx.Done()
	wg.Wait()

	return endpoints, nil
}
