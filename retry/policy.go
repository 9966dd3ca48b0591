// SPDX-License-Identifier: GPL-3.0-or-later

package retry

import "time"

// Policy is the pure-value retry configuration of spec §4.4.
type Policy struct {
	// MaxRetries bounds the number of retries. A negative value means
	// unbounded.
	MaxRetries int

	// Delay is how long [Record.WaitAndRetry] waits before invoking its
	// continuation.
	Delay time.Duration
}

// needed reports whether another retry is allowed given count prior
// attempts, per spec §4.4's "retry_needed" predicate.
func (p Policy) needed(count int) bool {
	return p.MaxRetries < 0 || count < p.MaxRetries
}
