package jsonmend

import "time"

// deadlinePollInterval controls how often the wall-clock bound is checked.
// time.Now per rune would dominate the scan cost.
const deadlinePollInterval = 1024

// budget meters scan work across both engine passes of one repair call.
type budget struct {
	steps    int
	maxSteps int
	deadline time.Time
	expired  bool
}

func newBudget(cfg options) *budget {
	b := &budget{maxSteps: cfg.maxSteps}
	if cfg.maxDuration > 0 {
		b.deadline = time.Now().Add(cfg.maxDuration)
	}
	return b
}

// spend consumes one step and reports whether the scan may continue. Once
// exhausted it stays exhausted for the rest of the call.
func (b *budget) spend() bool {
	if b.expired {
		return false
	}
	b.steps++
	if b.maxSteps > 0 && b.steps > b.maxSteps {
		b.expired = true
		return false
	}
	if !b.deadline.IsZero() && b.steps%deadlinePollInterval == 0 && time.Now().After(b.deadline) {
		b.expired = true
		return false
	}
	return true
}
