// ABOUTME: mDNS service discovery for vaani echo services
// ABOUTME: Handles advertisement (echo service) and browsing (voice client)
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type of a local echo service
const ServiceType = "_vaani-echo._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string // WebSocket path advertised in TXT (default "/")

	// QueryTimeout bounds one browse round (default 3s)
	QueryTimeout time.Duration
}

// Manager handles mDNS operations
type Manager struct {
	config   Config
	ctx      context.Context
	cancel   context.CancelFunc
	services chan *ServiceInfo
}

// ServiceInfo describes a discovered echo service
type ServiceInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// URL returns the WebSocket endpoint of the service
func (s *ServiceInfo) URL() string {
	path := s.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(s.Host, fmt.Sprint(s.Port)), path)
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/"
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = 3 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
		services: make(chan *ServiceInfo, 10),
	}
}

// Advertise advertises the echo service via mDNS until Stop
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.Path},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for echo services until Stop
func (m *Manager) Browse() {
	go m.browseLoop()
}

// browseLoop continuously browses for services
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				info := entryInfo(entry)
				if info == nil {
					continue
				}

				log.Printf("Discovered echo service: %s at %s", info.Name, info.URL())

				select {
				case m.services <- info:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Timeout = m.config.QueryTimeout
		params.Entries = entries
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
			select {
			case <-time.After(m.config.QueryTimeout):
			case <-m.ctx.Done():
			}
		}
		close(entries)
	}
}

// Services returns the channel of discovered services
func (m *Manager) Services() <-chan *ServiceInfo {
	return m.services
}

// Discover browses until the first service is found or ctx is done
func (m *Manager) Discover(ctx context.Context) (*ServiceInfo, error) {
	m.Browse()
	defer m.Stop()

	select {
	case info := <-m.services:
		return info, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no %s service found: %w", ServiceType, ctx.Err())
	}
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// entryInfo converts an mDNS entry, returning nil if it has no IPv4 address
func entryInfo(entry *mdns.ServiceEntry) *ServiceInfo {
	if entry.AddrV4 == nil {
		return nil
	}

	info := &ServiceInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: "/",
	}
	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok && path != "" {
			info.Path = path
		}
	}
	return info
}

// getLocalIPs returns local IPv4 addresses
func getLocalIPs() ([]net.IP, error) {
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
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
