// Package capacity keeps the remaining-place counters of bookable items
// correct under concurrent reservations. Every unit is in exactly one of
// three pools per item: free, held (reserved by a pending booking) or
// committed (booking reached its first payment).
package capacity

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInsufficientCapacity is a normal rejection, not a fault.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrViolation means an operation would have broken the accounting
	// invariants; it is returned before any counter changes.
	ErrViolation = errors.New("capacity accounting violation")

	ErrUnknownItem = errors.New("unknown item")
)

type itemState struct {
	mu        sync.Mutex
	total     int
	held      int
	committed int
}

func (s *itemState) free() int {
	return s.total - s.held - s.committed
}

// Accountant serializes reserve/commit/release per item. The outer lock
// only guards the item map; counter updates take the per-item lock.
type Accountant struct {
	mu    sync.RWMutex
	items map[string]*itemState
}

func NewAccountant() *Accountant {
	return &Accountant{items: make(map[string]*itemState)}
}

// Track registers an item's capacity. Units already sold before startup
// (total - remaining) are seeded as committed. Re-tracking a known item
// is a no-op so callers can register defensively.
func (a *Accountant) Track(itemID string, total, remaining int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.items[itemID]; ok {
		return
	}
	if remaining < 0 || remaining > total {
		remaining = total
	}
	a.items[itemID] = &itemState{total: total, committed: total - remaining}
}

func (a *Accountant) state(itemID string) (*itemState, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	return s, nil
}

// TryReserve atomically takes count units from the free pool. Two
// concurrent calls for the last unit cannot both succeed.
func (a *Accountant) TryReserve(itemID string, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: reserve count %d", ErrViolation, count)
	}
	s, err := a.state(itemID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.free() < count {
		return fmt.Errorf("%w: item %s has %d of %d places left", ErrInsufficientCapacity, itemID, s.free(), count)
	}
	s.held += count
	return nil
}

// Commit moves count units from held to committed. The caller guards the
// once-per-reservation rule with the reservation's committed flag; the
// accountant still refuses anything that would exceed total capacity.
func (a *Accountant) Commit(itemID string, count int) error {
	s, err := a.state(itemID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if count <= 0 || s.held < count || s.committed+count > s.total {
		return fmt.Errorf("%w: commit %d on item %s (held %d, committed %d/%d)",
			ErrViolation, count, itemID, s.held, s.committed, s.total)
	}
	s.held -= count
	s.committed += count
	return nil
}

// Release returns count units to the free pool, from the committed pool
// when committed is true, from the held pool otherwise. Idempotency per
// reservation is the caller's job (released flag); the accountant refuses
// a release that the pools cannot cover.
func (a *Accountant) Release(itemID string, count int, committed bool) error {
	s, err := a.state(itemID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if committed {
		if count <= 0 || s.committed < count {
			return fmt.Errorf("%w: release %d committed on item %s (committed %d)", ErrViolation, count, itemID, s.committed)
		}
		s.committed -= count
		return nil
	}
	if count <= 0 || s.held < count {
		return fmt.Errorf("%w: release %d held on item %s (held %d)", ErrViolation, count, itemID, s.held)
	}
	s.held -= count
	return nil
}

// Remaining reports the free units of an item.
func (a *Accountant) Remaining(itemID string) (int, error) {
	s, err := a.state(itemID)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.free(), nil
}

// Committed reports the committed units of an item.
func (a *Accountant) Committed(itemID string) (int, error) {
	s, err := a.state(itemID)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed, nil
}
