package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/paywall/pkg/queue"
)

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	t.Run("grows by multiplier and caps at max", func(t *testing.T) {
		t.Parallel()
		b := queue.ExponentialBackoff{InitialInterval: time.Second, MaxInterval: 5 * time.Second, Multiplier: 2}
		assert.Equal(t, time.Duration(0), b.NextInterval(0))
		assert.Equal(t, time.Second, b.NextInterval(1))
		assert.Equal(t, 2*time.Second, b.NextInterval(2))
		assert.Equal(t, 4*time.Second, b.NextInterval(3))
		assert.Equal(t, 5*time.Second, b.NextInterval(4))
	})

	t.Run("zero value uses defaults", func(t *testing.T) {
		t.Parallel()
		var b queue.ExponentialBackoff
		assert.Equal(t, time.Second, b.NextInterval(1))
		assert.Equal(t, 30*time.Second, b.NextInterval(10))
	})

	t.Run("jitter stays within factor", func(t *testing.T) {
		t.Parallel()
		b := queue.ExponentialBackoff{InitialInterval: 10 * time.Second, MaxInterval: time.Hour, JitterFactor: 0.1}
		for range 50 {
			d := b.NextInterval(1)
			assert.GreaterOrEqual(t, d, 9*time.Second)
			assert.LessOrEqual(t, d, 11*time.Second)
		}
	})
}

func TestConstantBackoff(t *testing.T) {
	t.Parallel()
	b := queue.ConstantBackoff(3 * time.Second)
	assert.Equal(t, 3*time.Second, b.NextInterval(1))
	assert.Equal(t, 3*time.Second, b.NextInterval(7))
}
