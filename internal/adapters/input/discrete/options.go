package discrete

import "time"

// Option configures a Channel.
type Option func(*Channel)

// WithMinLength sets the staged length that arms the debounced submission.
func WithMinLength(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.minLength = n
		}
	}
}

// WithDebounce sets the delay between reaching the minimum length and submitting.
func WithDebounce(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithClock sets the time source used to stamp candidates.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}

// WithOnChange registers a callback run after the entry surface changes.
// It is called without the channel lock held.
func WithOnChange(fn func()) Option {
	return func(c *Channel) {
		if fn != nil {
			c.onChange = fn
		}
	}
}
