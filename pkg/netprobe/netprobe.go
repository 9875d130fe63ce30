// Package netprobe implements NetworkProbe: host-level
// connectivity diagnostics, bootstrap/live peer enumeration, ping, and
// traffic delta sampling. Peer addresses are multiaddress strings; the
// probe never assumes a particular transport.
//
// The timeout-guarded resolution idiom here generalizes per-service DNS
// lookups to generic diagnostic-hostname reachability; pkg/health/tcp.go
// is reused unmodified for the raw TCP dial.
package netprobe

import (
	"context"
	"fmt"
	"net"
	"time"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/health"
	"github.com/docxology/nockchain/pkg/sysprobe"
)

// DiagnosticHosts are resolved by Status() to check general internet
// and DNS reachability, independent of any particular peer.
var DiagnosticHosts = []string{"1.1.1.1", "8.8.8.8"}

// HostStatus is one diagnostic hostname's reachability result.
type HostStatus struct {
	Host        string
	Reachable   bool
	RTT         time.Duration
	Error       string
}

// Probe offers connectivity diagnostics over a configured set of
// bootstrap peers and a connection timeout.
type Probe struct {
	BootstrapPeers []string
	ConnectTimeout time.Duration
	sys            *sysprobe.Probe
}

// New returns a Probe. sys is used by Traffic to sample network counters.
func New(bootstrapPeers []string, connectTimeout time.Duration, sys *sysprobe.Probe) *Probe {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	return &Probe{BootstrapPeers: bootstrapPeers, ConnectTimeout: connectTimeout, sys: sys}
}

// Status resolves DiagnosticHosts and reports reachability and
// observed round-trip time for each.
func (p *Probe) Status(ctx context.Context) []HostStatus {
	out := make([]HostStatus, 0, len(DiagnosticHosts))
	for _, host := range DiagnosticHosts {
		out = append(out, p.checkHost(ctx, host))
	}
	return out
}

func (p *Probe) checkHost(ctx context.Context, host string) HostStatus {
	checkCtx, cancel := context.WithTimeout(ctx, p.ConnectTimeout)
	defer cancel()

	start := time.Now()
	checker := health.NewTCPChecker(net.JoinHostPort(host, "443")).WithTimeout(p.ConnectTimeout)
	result := checker.Check(checkCtx)

	return HostStatus{
		Host:      host,
		Reachable: result.Healthy,
		RTT:       time.Since(start),
		Error:     errIfUnhealthy(result),
	}
}

func errIfUnhealthy(r health.Result) string {
	if r.Healthy {
		return ""
	}
	return r.Message
}

// PeerAddr is one parsed bootstrap or live peer entry.
type PeerAddr struct {
	Raw       string
	Multiaddr ma.Multiaddr
	Valid     bool
}

// Peers parses the configured bootstrap peer list, whose entries are
// multiaddress strings, into multiaddress values. Entries that fail to
// parse are reported with Valid=false rather than aborting the whole
// list.
func (p *Probe) Peers() []PeerAddr {
	out := make([]PeerAddr, 0, len(p.BootstrapPeers))
	for _, raw := range p.BootstrapPeers {
		addr, err := ma.NewMultiaddr(raw)
		out = append(out, PeerAddr{Raw: raw, Multiaddr: addr, Valid: err == nil})
	}
	return out
}

// Ping dials peer's resolved TCP component (if one is present in its
// multiaddress) and reports the round-trip connect time.
func (p *Probe) Ping(ctx context.Context, peer string) (time.Duration, error) {
	addr, err := ma.NewMultiaddr(peer)
	if err != nil {
		return 0, errs.Wrap(errs.Network, "parse peer multiaddress", err)
	}

	host, port, err := tcpComponents(addr)
	if err != nil {
		return 0, errs.Wrap(errs.Network, "peer has no dialable TCP component", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, p.ConnectTimeout)
	defer cancel()

	start := time.Now()
	checker := health.NewTCPChecker(net.JoinHostPort(host, port)).WithTimeout(p.ConnectTimeout)
	result := checker.Check(checkCtx)
	if !result.Healthy {
		return 0, errs.New(errs.Network, result.Message)
	}
	return time.Since(start), nil
}

// tcpComponents extracts the host and port protocol components from a
// multiaddress such as /ip4/1.2.3.4/tcp/9000.
func tcpComponents(addr ma.Multiaddr) (host, port string, err error) {
	for _, code := range []int{ma.P_IP4, ma.P_IP6, ma.P_DNS, ma.P_DNS4, ma.P_DNS6} {
		if v, err := addr.ValueForProtocol(code); err == nil {
			host = v
			break
		}
	}
	if port, err = addr.ValueForProtocol(ma.P_TCP); err != nil || host == "" {
		return "", "", fmt.Errorf("no ip+tcp components in %s", addr.String())
	}
	return host, port, nil
}

// TrafficSample is one interval's network counter delta.
type TrafficSample struct {
	Interval time.Duration
	RxBytes  uint64
	TxBytes  uint64
}

// Traffic samples SystemProbe's net counters twice, interval apart,
// and reports the delta.
func (p *Probe) Traffic(ctx context.Context, interval time.Duration) (TrafficSample, error) {
	if interval <= 0 {
		interval = time.Second
	}
	before := p.sys.Sample(ctx)

	select {
	case <-time.After(interval):
	case <-ctx.Done():
		return TrafficSample{}, errs.Wrap(errs.Network, "traffic sample cancelled", ctx.Err())
	}

	after := p.sys.Sample(ctx)

	return TrafficSample{
		Interval: interval,
		RxBytes:  deltaUint64(before.NetRxBytes, after.NetRxBytes),
		TxBytes:  deltaUint64(before.NetTxBytes, after.NetTxBytes),
	}, nil
}

func deltaUint64(before, after uint64) uint64 {
	if after < before {
		return 0
	}
	return after - before
}
