package graphics

import "time"

// FrameLimiter paces a render loop to a target frame rate.
type FrameLimiter struct {
	limit int
	next  time.Time
}

// NewFrameLimiter caps the loop at limit frames per second; limit <= 0 disables pacing.
func NewFrameLimiter(limit int) *FrameLimiter {
	return &FrameLimiter{limit: limit}
}

// Wait blocks until the next frame is due.
// It sleeps most of the interval and spins the last few microseconds.
func (f *FrameLimiter) Wait() {
	if f.limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(f.limit)
	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
		if time.Until(f.next) <= 0 {
			break
		}
	}

	// Resync after a hitch instead of racing to catch up.
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}
