package pipeline

import "time"

// WithClock exports withClock for testing.
func WithClock(now func() time.Time) Option { return withClock(now) }

// WithRunID exports withRunID for testing.
func WithRunID(fn func() string) Option { return withRunID(fn) }
