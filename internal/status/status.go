// Package status periodically checks server reachability.
package status

import (
	"context"
	"log/slog"
	"time"

	"github.com/yonagi/kiroku/internal/ping"
)

// Server is one monitored host.
type Server struct {
	Name string
	Addr string
}

// Status is the result of one reachability check.
type Status struct {
	Name   string
	Online bool
}

// Monitor pings a fixed server list on an interval.
type Monitor struct {
	servers  []Server
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	pingFn   func(ctx context.Context, addr string, timeout time.Duration) bool
}

// NewMonitor creates a Monitor. A zero timeout defaults to 5s.
func NewMonitor(servers []Server, interval, timeout time.Duration, logger *slog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Monitor{servers: servers, interval: interval, timeout: timeout, logger: logger, pingFn: ping.Ping}
}

// Check pings every server once and returns the results in list order.
func (m *Monitor) Check(ctx context.Context) []Status {
	out := make([]Status, 0, len(m.servers))
	for _, s := range m.servers {
		online := m.pingFn(ctx, s.Addr, m.timeout)
		m.logger.Debug("server status checked", slog.String("server", s.Name), slog.Bool("online", online))
		out = append(out, Status{Name: s.Name, Online: online})
	}
	return out
}

// Run checks on every interval tick and hands the results to report, until
// ctx is cancelled. The first check runs immediately.
func (m *Monitor) Run(ctx context.Context, report func([]Status)) {
	m.logger.Info("status monitor: started",
		slog.Int("servers", len(m.servers)),
		slog.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	report(m.Check(ctx))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("status monitor: stopped")
			return
		case <-ticker.C:
			report(m.Check(ctx))
		}
	}
}
