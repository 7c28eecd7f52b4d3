// Package budget bounds the number of model calls a run may make.
package budget

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrNegativeMax is returned for a negative call ceiling.
var ErrNegativeMax = errors.New("budget: max calls must be >= 0")

// CallBudget is a monotonically increasing call counter with a fixed ceiling.
// Used never exceeds Max and is never decremented; a failed call keeps its slot.
type CallBudget struct {
	max  int64
	used atomic.Int64
}

// New returns a budget permitting max calls. Zero is valid and permits none.
func New(max int) (*CallBudget, error) {
	if max < 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrNegativeMax, max)
	}
	return &CallBudget{max: int64(max)}, nil
}

// TryReserve atomically takes one call slot. It returns false, leaving the
// counter untouched, when the budget is exhausted.
func (b *CallBudget) TryReserve() bool {
	if b == nil {
		return false
	}
	for {
		cur := b.used.Load()
		if cur >= b.max {
			return false
		}
		if b.used.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Used returns the number of reserved slots.
func (b *CallBudget) Used() int {
	if b == nil {
		return 0
	}
	return int(b.used.Load())
}

// Max returns the ceiling fixed at construction.
func (b *CallBudget) Max() int {
	if b == nil {
		return 0
	}
	return int(b.max)
}

// Remaining returns Max - Used.
func (b *CallBudget) Remaining() int { return b.Max() - b.Used() }

// Exhausted reports whether no further reservation can succeed.
func (b *CallBudget) Exhausted() bool { return b.Remaining() <= 0 }
