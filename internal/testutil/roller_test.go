package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRoller(t *testing.T) {
	r := NewFixedRoller(0, 5, 7)

	assert.Equal(t, int64(0), r.Roll(4))
	// Scripted values wrap around the draw total.
	assert.Equal(t, int64(1), r.Roll(4))
	assert.Equal(t, int64(3), r.Roll(4))
}

func TestFixedRoller_PanicsWhenExhausted(t *testing.T) {
	r := NewFixedRoller(2)
	r.Roll(10)

	assert.PanicsWithValue(t, "FixedRoller: all rolls exhausted", func() {
		r.Roll(10)
	})
}

func TestZeroRoller(t *testing.T) {
	var r ZeroRoller
	assert.Equal(t, int64(0), r.Roll(1))
	assert.Equal(t, int64(0), r.Roll(1000))
}
