package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/tempoxyz/tempo-cli/internal/chain"
	"github.com/tempoxyz/tempo-cli/internal/log"
)

// probeTimeout bounds a single endpoint probe.
var probeTimeout = 5 * time.Second

// PingFunc measures one endpoint.
type PingFunc func(ctx context.Context, url string) (time.Duration, uint64, error)

// DialPing pings url through a chain.Client.
func DialPing(ctx context.Context, url string) (time.Duration, uint64, error) {
	c, err := chain.Dial(ctx, url)
	if err != nil {
		return 0, 0, err
	}
	defer c.Close()
	return c.Ping(ctx)
}

// ProbeAll pings every url concurrently. Results keep the order of urls.
func ProbeAll(ctx context.Context, urls []string, ping PingFunc) []Probe {
	if ping == nil {
		ping = DialPing
	}
	out := make([]Probe, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Go(func() {
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			lat, block, err := ping(pctx, u)
			out[i] = Probe{URL: u, Latency: lat, BlockNumber: block, Err: err}
		})
	}
	wg.Wait()
	return out
}

// Best probes urls and returns the one strategy prefers. A single url is
// returned without probing.
func Best(ctx context.Context, urls []string, strategy Strategy, ping PingFunc) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoEndpoint
	case 1:
		return urls[0], nil
	}
	probes := ProbeAll(ctx, urls, ping)
	l := log.WithComponent("rpc")
	for _, p := range probes {
		ev := l.Debug().Str("url", p.URL).Dur("latency", p.Latency).Uint64("block", p.BlockNumber)
		if p.Err != nil {
			ev = ev.Err(p.Err)
		}
		ev.Msg("probe")
	}
	p, err := NewSelector(strategy).Select(probes)
	if err != nil {
		return "", err
	}
	return p.URL, nil
}
