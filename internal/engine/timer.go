package engine

import "time"

// Timers are absolute wall-clock deadlines in unix milliseconds so that every
// connected client can render a consistent countdown from one published
// value. Deadlines are advisory for the UI and a soft gate for actions; no
// background scheduler fires transitions on expiry, lapse is checked lazily
// when the gated action arrives.

// Deadline computes now+d as a millisecond deadline.
func Deadline(now time.Time, d time.Duration) int64 {
	return now.Add(d).UnixMilli()
}

// Lapsed reports whether a deadline has passed. A zero deadline (no timer
// armed) never lapses.
func Lapsed(now time.Time, deadline int64) bool {
	return deadline != 0 && deadline < now.UnixMilli()
}

// Remaining returns the time left until deadline, clamped at zero.
func Remaining(now time.Time, deadline int64) int64 {
	left := deadline - now.UnixMilli()
	if left < 0 {
		return 0
	}
	return left
}
