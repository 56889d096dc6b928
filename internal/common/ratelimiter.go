package common

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Analysis struct {
	allowed bool          // If the request is allowed
	wait    time.Duration // The minimal time to wait before the request is allowed
}

type RateLimiter struct {
	mu           sync.Mutex
	restrictions []Restriction // Restrictions to consider
	history      []time.Time   // History of requests
	duration     time.Duration // Min duration to wait for all restrictions to be lifted
	now          func() time.Time
}

func NewRateLimiter(restrictions []Restriction) *RateLimiter {
	rl := &RateLimiter{now: time.Now}
	// Restrictions are just a copy of the provided ones
	rl.restrictions = make([]Restriction, 0, len(restrictions))
	for _, restriction := range restrictions {
		if restriction.Requests <= 0 || restriction.Duration <= 0 {
			log.Warn().Msgf("Ignoring invalid restriction of %d requests every %s", restriction.Requests, restriction.Duration)
			continue
		}
		rl.restrictions = append(rl.restrictions, restriction)
		if restriction.Duration > rl.duration {
			rl.duration = restriction.Duration
		}
	}
	return rl
}

// Block until all the restrictions allow a new request, or the
// context is done. An allowed request is recorded in the history
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		currentTime := rl.now()
		rl.trim(currentTime)
		analysis := rl.analyse(currentTime)
		if analysis.allowed {
			rl.history = append(rl.history, currentTime)
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		log.Debug().Msgf("Request delayed %.2f seconds by the rate limiter", analysis.wait.Seconds())
		timer := time.NewTimer(analysis.wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Trim the current history, leaving only the requests
// that are young enough to be affected by at least one restriction
func (rl *RateLimiter) trim(currentTime time.Time) {
	// Find the index from which we need to keep the history.
	// Start searching at the end of the slice.
	// Times are stored in chronological order
	index := 0
	for i := len(rl.history) - 1; i >= 0; i-- {
		if currentTime.Sub(rl.history[i]) >= rl.duration {
			index = i + 1
			break
		}
	}
	rl.history = rl.history[index:]
}

func (rl *RateLimiter) analyse(currentTime time.Time) Analysis {

	// Merge the analyses of every restriction
	var wait time.Duration = 0
	allowed := true
	for _, restriction := range rl.restrictions {
		analysis := restriction.Analyse(rl.history, currentTime)
		allowed = allowed && analysis.allowed
		if analysis.wait > wait {
			wait = analysis.wait
		}
	}
	return Analysis{allowed, wait}
}
