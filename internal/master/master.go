// Package master picks the Salt masters the helper talks to.
package master

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

const DefaultProbeTimeout = 10 * time.Second

var ErrNoMasters = errors.New("no reachable master")

// Dialer is satisfied by *net.Dialer.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Working probes every host with a TCP connect on port and returns the ones
// that accepted, in input order with duplicates removed. Probes run concurrently.
func Working(ctx context.Context, dialer Dialer, hosts []string, port int, timeout time.Duration) []string {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	hosts = unique(hosts)
	reachable := make([]bool, len(hosts))

	var g errgroup.Group
	for i, host := range hosts {
		g.Go(func() error {
			reachable[i] = probe(ctx, dialer, host, port, timeout)
			return nil
		})
	}
	_ = g.Wait()

	working := make([]string, 0, len(hosts))
	for i, host := range hosts {
		if reachable[i] {
			working = append(working, host)
		}
	}

	slog.Debug("working masters", "candidates", hosts, "working", working)
	return working
}

func probe(ctx context.Context, dialer Dialer, host string, port int, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		slog.Warn("Having troubles connecting to master", "master", host, "port", port, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}

// Pick returns one of masters at random.
func Pick(masters []string) (string, error) {
	if len(masters) == 0 {
		return "", ErrNoMasters
	}
	return masters[rand.IntN(len(masters))], nil
}

func unique(hosts []string) []string {
	seen := make(map[string]struct{}, len(hosts))
	result := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if _, ok := seen[h]; ok || h == "" {
			continue
		}
		seen[h] = struct{}{}
		result = append(result, h)
	}
	return result
}
