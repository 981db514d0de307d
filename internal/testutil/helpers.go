package testutil

import (
	"sync"
	"time"
)

// TestTime is the fixed instant used by clock-dependent tests.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// FixedTimeFunc returns a clock frozen at t.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// RunConcurrent starts every fn at once and returns their errors in order.
func RunConcurrent(fns ...func() error) []error {
	errs := make([]error, len(fns))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()
	return errs
}
