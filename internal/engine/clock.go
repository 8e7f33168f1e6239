package engine

import "time"

// Clock supplies the timestamps recorded on versions and test results.
//
// Dates are informational only. Version precedence comes from the tag and
// record order from the document, never from these timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
