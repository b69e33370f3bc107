// Package ping checks host reachability with ICMP echo requests.
package ping

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Ping sends one echo request to addr and reports whether any reply arrived
// within timeout. Resolution or socket errors count as unreachable.
func Ping(ctx context.Context, addr string, timeout time.Duration) bool {
	pinger, err := probing.NewPinger(addr)
	if err != nil {
		return false
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	// Unprivileged UDP ping; works without CAP_NET_RAW on Linux with
	// net.ipv4.ping_group_range configured.
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}
