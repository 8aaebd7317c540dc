package pagination

import "time"

// Pacing returns how long the n-th LoadMore (starting at 1) waits before revealing
// the next page. It must be a pure function of attempt.
type Pacing func(attempt int) time.Duration

// DefaultDelay is the reveal delay used by the dashboard
const DefaultDelay = 500 * time.Millisecond

// NoPacing reveals pages immediately
func NoPacing(int) time.Duration {
	return 0
}

// FixedPacing waits the same delay on every attempt
func FixedPacing(delay time.Duration) Pacing {
	return func(int) time.Duration {
		return delay
	}
}

// BackoffPacing grows the delay by 1.5x per attempt, capped at maxDelay
func BackoffPacing(initialDelay, maxDelay time.Duration) Pacing {
	return func(attempt int) time.Duration {
		delay := initialDelay
		for i := 1; i < attempt; i++ {
			delay = time.Duration(float64(delay) * 1.5)
			if delay > maxDelay {
				return maxDelay
			}
		}
		if delay > maxDelay {
			return maxDelay
		}
		return delay
	}
}
