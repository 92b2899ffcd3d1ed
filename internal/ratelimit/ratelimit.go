package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Endpoint keys for the upstream APIs the pipeline talks to. Each key owns
// an independent limiter; callers against different keys never contend.
const (
	SteamWebAPI   = "steam_web_api"
	SteamStoreAPI = "steam_store_api"
	SteamSpyAPI   = "steamspy_api"
	SteamSpyAll   = "steamspy_all_api"
)

// Limit is a (max requests, window) admission pair.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// Gate provides per-endpoint admission control. Acquire blocks the caller
// until the endpoint's limit allows one more request; it never fails for
// rate-limit reasons, only when the context is cancelled.
type Gate struct {
	limiters map[string]*rate.Limiter
}

func NewGate(limits map[string]Limit) *Gate {
	limiters := make(map[string]*rate.Limiter, len(limits))
	for key, l := range limits {
		if l.MaxRequests <= 0 || l.Window <= 0 {
			continue
		}
		// Burst 1 keeps the admission rate under MaxRequests over any
		// sliding window of length Window, not just on average.
		interval := l.Window / time.Duration(l.MaxRequests)
		limiters[key] = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Gate{limiters: limiters}
}

func (g *Gate) Acquire(ctx context.Context, endpoint string) error {
	if g == nil {
		return nil
	}
	limiter, ok := g.limiters[endpoint]
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

// Limiter exposes the underlying limiter for an endpoint, nil if unknown.
func (g *Gate) Limiter(endpoint string) *rate.Limiter {
	if g == nil {
		return nil
	}
	return g.limiters[endpoint]
}
