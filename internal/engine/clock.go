package engine

import "time"

// Clock supplies wall-clock timestamps in Unix milliseconds.
//
// Reducers never read the time themselves; Store asks its Clock once per
// Dispatch so that every field touched by one action carries the same value.
// Tests inject testutil.FixedClock for byte-stable output.
type Clock interface {
	Now() int64
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current time in Unix milliseconds.
func (SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}
