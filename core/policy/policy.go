package policy

import (
	"fmt"
	"sync"
)

const maxSeenIDs = 10000

// Policy admits each update_id at most once within a bounded window of
// recently seen ids. Telegram redelivers webhook updates it believes failed.
type Policy struct {
	mu        sync.Mutex
	seen      map[int64]bool
	seenOrder []int64
	capacity  int
}

// New creates a Policy remembering up to 10000 update ids.
func New() *Policy {
	return NewWithCapacity(maxSeenIDs)
}

// NewWithCapacity creates a Policy remembering up to capacity update ids.
func NewWithCapacity(capacity int) *Policy {
	if capacity <= 0 {
		capacity = maxSeenIDs
	}
	return &Policy{
		seen:     make(map[int64]bool),
		capacity: capacity,
	}
}

// Admit returns an error if updateID was already admitted.
func (p *Policy) Admit(updateID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seen[updateID] {
		return fmt.Errorf("duplicate update: %d", updateID)
	}

	// Prune oldest entries if at capacity.
	if len(p.seen) >= p.capacity {
		n := max(1, p.capacity/10)
		if n > len(p.seenOrder) {
			n = len(p.seenOrder)
		}
		for _, id := range p.seenOrder[:n] {
			delete(p.seen, id)
		}
		p.seenOrder = p.seenOrder[n:]
	}

	p.seen[updateID] = true
	p.seenOrder = append(p.seenOrder, updateID)

	return nil
}

// Len returns the number of remembered ids.
func (p *Policy) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}
