package polar

import (
	"sync"
	"time"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calling the API after consecutive upstream failures and
// lets a probe through once the cool-down has passed. Client errors (4xx)
// do not count as failures. Safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	threshold int
	probes    int
	cooldown  time.Duration
	now       func() time.Time

	state     breakerState
	failures  int
	successes int
	openedAt  time.Time
}

// NewBreaker returns a breaker that opens after threshold consecutive
// failures and closes again after probes successful calls in half-open state.
func NewBreaker(threshold, probes int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if probes <= 0 {
		probes = 1
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		threshold: threshold,
		probes:    probes,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateOpen {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		b.state = stateHalfOpen
		b.successes = 0
		return true
	}
	return false
}

func (b *Breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		b.failures = 0
	case stateHalfOpen:
		b.successes++
		if b.successes >= b.probes {
			b.state = stateClosed
			b.failures = 0
		}
	}
}

func (b *Breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.state = stateOpen
			b.openedAt = b.now()
		}
	case stateHalfOpen:
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

// State reports "closed", "open" or "half-open".
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return stateHalfOpen.String()
	}
	return b.state.String()
}
