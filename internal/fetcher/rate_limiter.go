package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter limits requests per host: at most rpm requests per minute and
// at most maxConcurrent requests in flight.
type RateLimiter struct {
	maxConcurrent int
	rpm           int
	hosts         map[string]*hostLimit
	mu            sync.Mutex
}

type hostLimit struct {
	limiter *rate.Limiter
	slots   chan struct{}
}

func NewRateLimiter(maxConcurrent, rpm int) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &RateLimiter{
		maxConcurrent: maxConcurrent,
		rpm:           rpm,
		hosts:         make(map[string]*hostLimit),
	}
}

func (rl *RateLimiter) host(host string) *hostLimit {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	h, ok := rl.hosts[host]
	if !ok {
		limit := rate.Inf
		if rl.rpm > 0 {
			limit = rate.Every(time.Minute / time.Duration(rl.rpm))
		}
		h = &hostLimit{
			limiter: rate.NewLimiter(limit, rl.maxConcurrent),
			slots:   make(chan struct{}, rl.maxConcurrent),
		}
		rl.hosts[host] = h
	}
	return h
}

// Acquire blocks until a request to host may be sent. The caller holds an
// in-flight slot until it calls release.
func (rl *RateLimiter) Acquire(ctx context.Context, host string) (release func(), err error) {
	h := rl.host(host)

	select {
	case h.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := h.limiter.Wait(ctx); err != nil {
		<-h.slots
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { <-h.slots }) }, nil
}
