// Package proxy builds the HTTP client used for every outbound API call.
package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

const Timeout = 120 * time.Second

// NewClient returns a client that dials through the SOCKS5 proxy at addr,
// or a direct client when addr is empty.
func NewClient(addr string) (*http.Client, error) {
	if addr == "" {
		return &http.Client{Timeout: Timeout}, nil
	}

	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 %s: %w", addr, err)
	}

	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, address)
		}
		return dialer.Dial(network, address)
	}

	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dial,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: Timeout,
	}, nil
}
