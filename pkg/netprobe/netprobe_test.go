package netprobe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docxology/nockchain/pkg/sysprobe"
)

func TestPeersReportsInvalidEntriesWithoutAborting(t *testing.T) {
	p := New([]string{
		"/ip4/127.0.0.1/tcp/9000",
		"not-a-multiaddr",
	}, time.Second, sysprobe.New(t.TempDir()))

	peers := p.Peers()
	require.Len(t, peers, 2)
	assert.True(t, peers[0].Valid)
	assert.False(t, peers[1].Valid)
}

func TestPingRejectsMalformedPeer(t *testing.T) {
	p := New(nil, time.Second, sysprobe.New(t.TempDir()))
	_, err := p.Ping(context.Background(), "definitely-not-a-multiaddr")
	assert.Error(t, err)
}

func TestTrafficReportsNonNegativeDelta(t *testing.T) {
	p := New(nil, time.Second, sysprobe.New(t.TempDir()))
	sample, err := p.Traffic(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sample.RxBytes, uint64(0))
	assert.GreaterOrEqual(t, sample.TxBytes, uint64(0))
}

func TestTrafficRespectsCancellation(t *testing.T) {
	p := New(nil, time.Second, sysprobe.New(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Traffic(ctx, time.Second)
	assert.Error(t, err)
}

func TestStatusChecksEveryDiagnosticHost(t *testing.T) {
	p := New(nil, 2*time.Second, sysprobe.New(t.TempDir()))
	results := p.Status(context.Background())
	assert.Len(t, results, len(DiagnosticHosts))
}
