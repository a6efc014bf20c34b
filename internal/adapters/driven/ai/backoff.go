package ai

import "time"

// Default retry policy for a loading embedding backend
const (
	DefaultBaseDelay  = 200 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
	DefaultMaxRetries = 10
)

// BackoffPolicy computes retry delays as base * 2^attempt, capped at Max.
type BackoffPolicy struct {
	Base       time.Duration
	Max        time.Duration
	MaxRetries int
}

// DefaultBackoff returns the default retry policy
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Base:       DefaultBaseDelay,
		Max:        DefaultMaxDelay,
		MaxRetries: DefaultMaxRetries,
	}
}

// Delay returns the wait before retry number attempt (0-based).
// It is a pure function of the attempt number.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Max || d <= 0 {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// Backoff returns the default policy's delay for attempt
func Backoff(attempt int) time.Duration {
	return DefaultBackoff().Delay(attempt)
}
