package memstore

import (
	"context"
	"errors"
	"sync"
)

// ErrMarksUnavailable is returned by a MarkSet that has been taken down
var ErrMarksUnavailable = errors.New("mark store unavailable")

// MarkSet is an in-memory shipment marker store with the same contract as the
// redis one
type MarkSet struct {
	mu     sync.Mutex
	marked map[int64]bool
	down   bool
}

func NewMarkSet() *MarkSet {
	return &MarkSet{marked: map[int64]bool{}}
}

// SetDown simulates an outage. Every call fails while down.
func (m *MarkSet) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

func (m *MarkSet) MarkShipped(ctx context.Context, itemID int64, siblingIDs []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, ErrMarksUnavailable
	}

	m.marked[itemID] = true
	return m.count(siblingIDs), nil
}

func (m *MarkSet) CountShipped(ctx context.Context, itemIDs []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, ErrMarksUnavailable
	}
	return m.count(itemIDs), nil
}

func (m *MarkSet) IsShipped(ctx context.Context, itemID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false, ErrMarksUnavailable
	}
	return m.marked[itemID], nil
}

func (m *MarkSet) count(ids []int64) int {
	n := 0
	for _, id := range ids {
		if m.marked[id] {
			n++
		}
	}
	return n
}
