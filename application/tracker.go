package application

import "sync"

type counts struct {
	total     int
	completed int
}

// Tracker holds expected vs. completed item counts for in-flight batches,
// keyed by job id. It is the only mutable state shared across evaluation
// workers, so every access goes through the mutex. An entry is created
// when a batch is registered and removed once every item has reached a
// terminal outcome: success, duplicate skip, or error.
type Tracker struct {
	mu   sync.Mutex
	jobs map[uint]*counts
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[uint]*counts)}
}

// Register starts tracking a batch of total items for jobID. Registering
// again for the same job resets the counts.
func (t *Tracker) Register(jobID uint, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[jobID] = &counts{total: total}
}

// Complete records one terminal per-item outcome. When the completed
// count reaches the total the entry is deleted and done is true.
func (t *Tracker) Complete(jobID uint) (completed, total int, done bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.jobs[jobID]
	if !ok {
		return 0, 0, false
	}
	c.completed++
	if c.completed >= c.total {
		delete(t.jobs, jobID)
		return c.completed, c.total, true
	}
	return c.completed, c.total, false
}

// Active reports whether a batch is still being tracked for jobID.
func (t *Tracker) Active(jobID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.jobs[jobID]
	return ok
}

// Remove drops the entry for jobID if it still exists.
func (t *Tracker) Remove(jobID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, jobID)
}
