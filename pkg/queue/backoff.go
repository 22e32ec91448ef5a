package queue

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay before the next attempt of a failed task.
// Attempt is the number of attempts already made, starting at 1.
type Backoff interface {
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier per attempt, randomised by
// JitterFactor and capped at MaxInterval. Zero fields take defaults of 1s, 30s
// and 2; a zero JitterFactor gives deterministic delays.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval returns min(initial * multiplier^(attempt-1) * (1 ± jitter), max).
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial <= 0 {
		initial = time.Second
	}
	maxInterval := e.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}
	if interval > float64(maxInterval) {
		interval = float64(maxInterval)
	}
	return time.Duration(interval)
}

// ConstantBackoff waits the same interval between attempts.
type ConstantBackoff time.Duration

func (c ConstantBackoff) NextInterval(int) time.Duration { return time.Duration(c) }
