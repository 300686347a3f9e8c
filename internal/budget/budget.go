// Package budget tracks the wall-clock time a pipeline run may consume and
// caps per-call timeouts so no single provider call can blow the deadline.
package budget

import "time"

// DefaultRunBudget is the total wall-clock allowance for one stage execution.
const DefaultRunBudget = 280 * time.Second

// Budget tracks elapsed time against a fixed allowance. The zero value is
// unusable; construct with New.
type Budget struct {
	total time.Duration
	start time.Time
	now   func() time.Time
}

// New returns a Budget of the given total allowance, started immediately.
func New(total time.Duration) *Budget {
	return &Budget{total: total, start: time.Now(), now: time.Now}
}

// newAt is a test seam for controlling the clock.
func newAt(total time.Duration, now func() time.Time) *Budget {
	return &Budget{total: total, start: now(), now: now}
}

// Elapsed returns how much of the budget has been consumed.
func (b *Budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}

// Remaining returns the unconsumed allowance, never negative.
func (b *Budget) Remaining() time.Duration {
	r := b.total - b.Elapsed()
	if r < 0 {
		return 0
	}
	return r
}

// Exhausted reports whether fewer than min remain. Callers use this to stop
// scheduling new work and persist a resumable state instead.
func (b *Budget) Exhausted(min time.Duration) bool {
	return b.Remaining() < min
}

// Cap bounds a requested per-call timeout by what the budget can still
// afford. When the budget is nearly spent it returns almost everything that
// remains so the final call still gets a chance; otherwise it reserves a
// few seconds of slack for bookkeeping after the call returns.
func (b *Budget) Cap(requested time.Duration) time.Duration {
	remaining := b.Remaining()
	if remaining < 10*time.Second {
		capped := remaining - 2*time.Second
		if capped < time.Second {
			return time.Second
		}
		return capped
	}
	capped := requested
	if withSlack := remaining - 5*time.Second; withSlack < capped {
		capped = withSlack
	}
	if capped < 5*time.Second {
		return 5 * time.Second
	}
	return capped
}
