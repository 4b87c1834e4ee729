package discovery

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ICMPProber checks seed/peer liveness with an unprivileged ICMP echo
// before SSH is attempted (§4.1). The Crawler does not log the probe
// result, and a failed probe never prevents the SSH attempt.
type ICMPProber struct {
	Timeout time.Duration
}

func (p ICMPProber) Probe(ctx context.Context, ip string) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	pinger, err := probing.NewPinger(ip)
	if err != nil {
		return false
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return false
	}
	stats := pinger.Statistics()
	return stats != nil && stats.PacketsRecv > 0
}
