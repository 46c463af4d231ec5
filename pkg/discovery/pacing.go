package discovery

import (
	"time"

	"golang.org/x/time/rate"
)

// newPacer allows one page fetch per pause. The first Wait returns at once.
func newPacer(pause time.Duration) *rate.Limiter {
	if pause <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(pause), 1)
}

// collector gathers one stage's names. Names reported by earlier stages are
// dropped and never count toward the budget.
type collector struct {
	known  func(string) bool
	budget int // 0 = unlimited
	seen   map[string]bool
	found  []string
}

func newCollector(budget int, known func(string) bool) *collector {
	if known == nil {
		known = func(string) bool { return false }
	}
	return &collector{known: known, budget: budget, seen: map[string]bool{}}
}

// full reports whether the stage has filled its budget.
func (c *collector) full() bool {
	return c.budget > 0 && len(c.found) >= c.budget
}

// offer records names and returns how many this stage had not seen before,
// including names already known from earlier stages.
func (c *collector) offer(names []string) int {
	fresh := 0
	for _, n := range names {
		if n == "" || c.seen[n] {
			continue
		}
		c.seen[n] = true
		fresh++
		if c.known(n) || c.full() {
			continue
		}
		c.found = append(c.found, n)
	}
	return fresh
}
