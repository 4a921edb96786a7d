package engine

import "time"

// Clock supplies the current instant for timer expiry and puzzle
// timestamps. Implemented by SystemClock (production) and
// testutil.FixedClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
