// SPDX-License-Identifier: EPL-2.0

// Package discovery advertises the HTTP conversion service over mDNS and
// finds other instances on the local network.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

const DefaultService = "_audconv._tcp"

var ErrNoAddresses = errors.New("no usable network addresses")

// Config holds discovery configuration
type Config struct {
	Instance string
	Service  string
	Port     int
	// Formats are published in the TXT record so browsers can filter.
	Formats []string
	Logger  *slog.Logger
}

func (c Config) service() string {
	if c.Service == "" {
		return DefaultService
	}
	return c.Service
}

// TXT returns the TXT record entries of the advertisement.
func (c Config) TXT() []string {
	txt := []string{"path=/api/v1", "ws=/ws/convert"}
	for _, f := range c.Formats {
		txt = append(txt, "format="+f)
	}
	return txt
}

// Advertiser publishes one service instance
type Advertiser struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	server *mdns.Server
}

func NewAdvertiser(config Config) *Advertiser {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Advertiser{config: config, logger: logger}
}

// Advertise starts answering mDNS queries until ctx ends or Stop is called
func (a *Advertiser) Advertise(ctx context.Context) error {
	if a.config.Port < 1 || a.config.Port > 65535 {
		return fmt.Errorf("invalid port %d", a.config.Port)
	}

	ips, err := localIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}
	if len(ips) == 0 {
		return ErrNoAddresses
	}

	service, err := mdns.NewMDNSService(a.config.Instance, a.config.service(), "", "", a.config.Port, ips, a.config.TXT())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	a.mu.Lock()
	a.server = server
	a.mu.Unlock()

	a.logger.Info("advertising mDNS service",
		"instance", a.config.Instance, "service", a.config.service(), "port", a.config.Port)

	go func() {
		<-ctx.Done()
		a.Stop()
	}()

	return nil
}

// Stop withdraws the advertisement. It is safe to call more than once.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}
	if err := a.server.Shutdown(); err != nil {
		a.logger.Warn("failed to stop mDNS server", "error", err)
	}
	a.server = nil
}

// Instance describes a discovered service
type Instance struct {
	Name string
	Host string
	Port int
	TXT  []string
}

// Addr returns host:port
func (i Instance) Addr() string {
	return net.JoinHostPort(i.Host, fmt.Sprint(i.Port))
}

// Browse queries the network once for service and collects the answers that
// arrive within timeout.
func Browse(ctx context.Context, service string, timeout time.Duration) ([]Instance, error) {
	if service == "" {
		service = DefaultService
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	var (
		found []Instance
		done  = make(chan struct{})
	)

	go func() {
		defer close(done)
		for entry := range entries {
			host := entry.Host
			if entry.AddrV4 != nil {
				host = entry.AddrV4.String()
			}
			found = append(found, Instance{Name: entry.Name, Host: host, Port: entry.Port, TXT: entry.InfoFields})
		}
	}()

	params := mdns.DefaultParams(service)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-done

	if err != nil {
		return found, fmt.Errorf("mdns query: %w", err)
	}
	return found, nil
}

// localIPs returns the IPv4 addresses of interfaces that are up
func localIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
