package rpc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(url string, latency time.Duration, block uint64) Probe {
	return Probe{URL: url, Latency: latency, BlockNumber: block}
}

func down(url string) Probe {
	return Probe{URL: url, Err: errors.New("connection refused")}
}

func TestSelectFastest(t *testing.T) {
	probes := []Probe{
		up("http://slow", 200*time.Millisecond, 100),
		up("http://fast", 30*time.Millisecond, 100),
		up("http://medium", 80*time.Millisecond, 100),
	}
	p, err := NewSelector(StrategyFastest).Select(probes)
	require.NoError(t, err)
	assert.Equal(t, "http://fast", p.URL)
}

func TestSelectSkipsLaggingNode(t *testing.T) {
	probes := []Probe{
		up("http://tip", 50*time.Millisecond, 1000),
		up("http://behind", 5*time.Millisecond, 990),
	}
	p, err := NewSelector(StrategyFastest).Select(probes)
	require.NoError(t, err)
	assert.Equal(t, "http://tip", p.URL)
}

func TestSelectSubMillisecondLatency(t *testing.T) {
	probes := []Probe{
		up("http://a", 400*time.Microsecond, 10),
		up("http://b", 900*time.Microsecond, 10),
	}
	p, err := NewSelector(StrategyFastest).Select(probes)
	require.NoError(t, err)
	assert.Equal(t, "http://a", p.URL)
}

func TestSelectAllDown(t *testing.T) {
	for _, s := range []Strategy{StrategyFastest, StrategyFailover, StrategyRotate} {
		_, err := NewSelector(s).Select([]Probe{down("http://a"), down("http://b")})
		assert.ErrorIs(t, err, ErrNoEndpoint, s)

		_, err = NewSelector(s).Select(nil)
		assert.ErrorIs(t, err, ErrNoEndpoint, s)
	}
}

func TestSelectFailoverKeepsOrder(t *testing.T) {
	probes := []Probe{
		down("http://primary"),
		up("http://secondary", 300*time.Millisecond, 5),
		up("http://tertiary", 10*time.Millisecond, 5),
	}
	p, err := NewSelector(StrategyFailover).Select(probes)
	require.NoError(t, err)
	assert.Equal(t, "http://secondary", p.URL)
}

func TestSelectRotateCycles(t *testing.T) {
	probes := []Probe{
		up("http://a", 0, 7),
		down("http://dead"),
		up("http://b", 0, 7),
	}
	s := NewSelector(StrategyRotate)
	var got []string
	for range 4 {
		p, err := s.Select(probes)
		require.NoError(t, err)
		got = append(got, p.URL)
	}
	assert.Equal(t, []string{"http://a", "http://b", "http://a", "http://b"}, got)
}

func TestFastestWinnerIsReusedUntilExpiry(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	s := NewSelector(StrategyFastest)
	s.now = func() time.Time { return clock }

	first, err := s.Select([]Probe{up("http://a", 10*time.Millisecond, 1), up("http://b", 50*time.Millisecond, 1)})
	require.NoError(t, err)
	require.Equal(t, "http://a", first.URL)

	// b is now faster but a is still cached.
	reshuffled := []Probe{up("http://a", 90*time.Millisecond, 1), up("http://b", 5*time.Millisecond, 1)}
	p, err := s.Select(reshuffled)
	require.NoError(t, err)
	assert.Equal(t, "http://a", p.URL)

	clock = clock.Add(winnerTTL + time.Second)
	p, err = s.Select(reshuffled)
	require.NoError(t, err)
	assert.Equal(t, "http://b", p.URL)
}

func TestFastestCachedWinnerDroppedWhenDown(t *testing.T) {
	s := NewSelector(StrategyFastest)
	_, err := s.Select([]Probe{up("http://a", time.Millisecond, 1), up("http://b", time.Second, 1)})
	require.NoError(t, err)

	p, err := s.Select([]Probe{down("http://a"), up("http://b", time.Second, 1)})
	require.NoError(t, err)
	assert.Equal(t, "http://b", p.URL)
}

func TestProbeAllKeepsOrder(t *testing.T) {
	urls := []string{"http://a", "http://b", "http://c"}
	ping := func(_ context.Context, url string) (time.Duration, uint64, error) {
		if url == "http://b" {
			return 0, 0, errors.New("timeout")
		}
		return time.Millisecond, 42, nil
	}
	probes := ProbeAll(context.Background(), urls, ping)
	require.Len(t, probes, 3)
	for i, u := range urls {
		assert.Equal(t, u, probes[i].URL)
	}
	assert.True(t, probes[0].Up())
	assert.False(t, probes[1].Up())
	assert.Equal(t, uint64(42), probes[2].BlockNumber)
}

func TestBestSingleURLSkipsProbe(t *testing.T) {
	var calls atomic.Int32
	ping := func(context.Context, string) (time.Duration, uint64, error) {
		calls.Add(1)
		return 0, 0, nil
	}
	url, err := Best(context.Background(), []string{"http://only"}, StrategyFastest, ping)
	require.NoError(t, err)
	assert.Equal(t, "http://only", url)
	assert.Zero(t, calls.Load())
}

func TestBestNoURLs(t *testing.T) {
	_, err := Best(context.Background(), nil, StrategyFastest, nil)
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestBestPicksHealthy(t *testing.T) {
	ping := func(_ context.Context, url string) (time.Duration, uint64, error) {
		if url == "http://a" {
			return 0, 0, errors.New("down")
		}
		return 20 * time.Millisecond, 9, nil
	}
	url, err := Best(context.Background(), []string{"http://a", "http://b"}, StrategyFastest, ping)
	require.NoError(t, err)
	assert.Equal(t, "http://b", url)
}
