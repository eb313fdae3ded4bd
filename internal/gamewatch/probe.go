package gamewatch

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Probe opens and immediately closes a TCP connection to address,
// returning how long the handshake took. Game servers that accept the
// connection are considered up.
func Probe(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
	dialer := net.Dialer{Timeout: timeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", address, err)
	}
	latency := time.Since(start)

	if err := conn.Close(); err != nil {
		return latency, fmt.Errorf("closing probe to %s: %w", address, err)
	}
	return latency, nil
}
