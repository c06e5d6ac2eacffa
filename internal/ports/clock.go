package ports

import "time"

// Clock supplies "now" so that timestamps and durations stay deterministic
// under test.
type Clock interface {
	Now() time.Time
}

// Identity supplies the acting user recorded on audit entries and
// executions.
type Identity interface {
	CurrentUser() string
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// IdentityFunc adapts a function to the Identity interface.
type IdentityFunc func() string

func (f IdentityFunc) CurrentUser() string { return f() }
