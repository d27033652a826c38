package remote

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// Prober answers whether the network is usable right now.
type Prober interface {
	Reachable(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Reachable(ctx context.Context) error {
	return f(ctx)
}

// Always reports the network as reachable.
var Always Prober = ProberFunc(func(context.Context) error { return nil })

const defaultDialTimeout = 3 * time.Second

// DialProber opens and closes a TCP connection to the store host.
type DialProber struct {
	Address string
	Timeout time.Duration
}

// NewDialProber derives the host and port to dial from a base URL.
func NewDialProber(rawURL string, timeout time.Duration) (*DialProber, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("url %q has no host", rawURL)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	return &DialProber{Address: net.JoinHostPort(u.Hostname(), port), Timeout: timeout}, nil
}

func (p *DialProber) Reachable(ctx context.Context) error {
	d := net.Dialer{Timeout: p.Timeout}

	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", p.Address, err)
	}

	return conn.Close()
}
