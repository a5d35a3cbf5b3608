package master_test

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salt-ha/salt-ha/internal/master"
)

// fakeDialer succeeds for hosts in up, refuses everything else.
type fakeDialer struct {
	up    map[string]bool
	delay map[string]time.Duration
}

func (d fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	if wait, ok := d.delay[host]; ok {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !d.up[host] {
		return nil, errors.New("connection refused")
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

func TestWorking(t *testing.T) {
	dialer := fakeDialer{
		up:    map[string]bool{"m1": true, "m3": true},
		delay: map[string]time.Duration{"m1": 20 * time.Millisecond},
	}

	tt := []struct {
		name     string
		hosts    []string
		expected []string
	}{
		{name: "in order", hosts: []string{"m1", "m2", "m3"}, expected: []string{"m1", "m3"}},
		{name: "reversed", hosts: []string{"m3", "m2", "m1"}, expected: []string{"m3", "m1"}},
		{name: "duplicates", hosts: []string{"m1", "m1", "", "m2"}, expected: []string{"m1"}},
		{name: "none up", hosts: []string{"m2", "m4"}, expected: []string{}},
		{name: "empty", hosts: nil, expected: []string{}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			working := master.Working(t.Context(), dialer, tc.hosts, 8000, time.Second)
			require.Equal(t, tc.expected, working)
		})
	}
}

func TestWorking_SameSetRegardlessOfOrder(t *testing.T) {
	dialer := fakeDialer{up: map[string]bool{"a": true, "c": true, "e": true}}

	first := master.Working(t.Context(), dialer, []string{"a", "b", "c", "d", "e"}, 8000, time.Second)
	second := master.Working(t.Context(), dialer, []string{"e", "d", "c", "b", "a"}, 8000, time.Second)
	require.ElementsMatch(t, first, second)
}

func TestWorking_Timeout(t *testing.T) {
	dialer := fakeDialer{
		up:    map[string]bool{"slow": true, "fast": true},
		delay: map[string]time.Duration{"slow": time.Second},
	}

	start := time.Now()
	working := master.Working(t.Context(), dialer, []string{"slow", "fast"}, 8000, 50*time.Millisecond)
	require.Equal(t, []string{"fast"}, working)
	require.Less(t, time.Since(start), time.Second)
}

func TestWorking_RealListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	working := master.Working(t.Context(), nil, []string{"127.0.0.1"}, port, time.Second)
	require.Equal(t, []string{"127.0.0.1"}, working)

	// Nothing listens on the port once the listener is gone
	require.NoError(t, ln.Close())
	working = master.Working(t.Context(), nil, []string{"127.0.0.1"}, port, time.Second)
	require.Empty(t, working)
}

func TestPick(t *testing.T) {
	_, err := master.Pick(nil)
	require.ErrorIs(t, err, master.ErrNoMasters)

	masters := []string{"m1", "m2", "m3"}
	for range 20 {
		m, err := master.Pick(masters)
		require.NoError(t, err)
		require.Contains(t, masters, m)
	}

	m, err := master.Pick([]string{"only"})
	require.NoError(t, err)
	require.Equal(t, "only", m)
}
