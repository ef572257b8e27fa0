package updater

import "sync"

// ProgressFunc receives (completed, total) after every settled download and
// once with completed == 0 when a batch starts. It is called from worker
// goroutines, one call at a time, with completed strictly increasing.
type ProgressFunc func(completed, total int)

// ProgressState counts settled tasks for one download batch.
type ProgressState struct {
	mu        sync.Mutex
	completed int
	total     int
}

func (p *ProgressState) Reset(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = 0
	p.total = total
}

// Settle records one finished task and reports the new value to fn while the
// lock is held, so observers never see counts out of order.
func (p *ProgressState) Settle(fn ProgressFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed < p.total {
		p.completed++
	}
	if fn != nil {
		fn(p.completed, p.total)
	}
}

func (p *ProgressState) Snapshot() (completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed, p.total
}
