// Package rpc chooses which of a network's RPC endpoints to talk to.
package rpc

import (
	"errors"
	"sync"
	"time"
)

// ErrNoEndpoint is returned when every candidate endpoint is down or lagging.
var ErrNoEndpoint = errors.New("no usable RPC endpoint")

// Strategy names an endpoint selection rule.
type Strategy string

const (
	StrategyFastest  Strategy = "fastest"
	StrategyFailover Strategy = "failover"
	StrategyRotate   Strategy = "rotate"
)

const (
	// Nodes further behind the tip than this are skipped.
	maxBlockLag = 3
	// How long a fastest-strategy winner is reused.
	winnerTTL = 5 * time.Minute
)

// Probe is the measured state of one endpoint.
type Probe struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Up reports whether the probe succeeded.
func (p Probe) Up() bool { return p.Err == nil }

// Selector picks an endpoint from a set of probes.
type Selector struct {
	strategy Strategy

	mu      sync.Mutex
	next    int
	winner  string
	expires time.Time
	now     func() time.Time
}

// NewSelector returns a Selector using strategy. Unknown strategies fall
// back to fastest.
func NewSelector(strategy Strategy) *Selector {
	return &Selector{strategy: strategy, now: time.Now}
}

// Select returns the chosen probe.
func (s *Selector) Select(probes []Probe) (Probe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.strategy {
	case StrategyFailover:
		for _, p := range probes {
			if p.Up() {
				return p, nil
			}
		}
		return Probe{}, ErrNoEndpoint
	case StrategyRotate:
		up := usable(probes)
		if len(up) == 0 {
			return Probe{}, ErrNoEndpoint
		}
		p := up[s.next%len(up)]
		s.next = (s.next + 1) % len(up)
		return p, nil
	default:
		return s.fastest(probes)
	}
}

func (s *Selector) fastest(probes []Probe) (Probe, error) {
	if s.winner != "" && s.now().Before(s.expires) {
		for _, p := range probes {
			if p.URL == s.winner && p.Up() {
				return p, nil
			}
		}
	}

	up := usable(probes)
	if len(up) == 0 {
		return Probe{}, ErrNoEndpoint
	}
	tip := highestBlock(up)

	var (
		best  Probe
		score float64
		found bool
	)
	for _, p := range up {
		sc := rank(p, tip)
		if !found || sc > score {
			best, score, found = p, sc, true
		}
	}
	s.winner = best.URL
	s.expires = s.now().Add(winnerTTL)
	return best, nil
}

// usable drops failed probes and probes lagging the tip.
func usable(probes []Probe) []Probe {
	var up []Probe
	for _, p := range probes {
		if p.Up() {
			up = append(up, p)
		}
	}
	tip := highestBlock(up)
	out := up[:0]
	for _, p := range up {
		if tip-p.BlockNumber <= maxBlockLag {
			out = append(out, p)
		}
	}
	return out
}

func highestBlock(probes []Probe) uint64 {
	var tip uint64
	for _, p := range probes {
		tip = max(tip, p.BlockNumber)
	}
	return tip
}

// rank favours low latency, with a small bonus for being at the tip.
func rank(p Probe, tip uint64) float64 {
	var sc float64
	if us := p.Latency.Microseconds(); us > 0 {
		sc += 1e6 / float64(us)
	}
	sc += float64(maxBlockLag - int64(tip-p.BlockNumber))
	return sc
}
