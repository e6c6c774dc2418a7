package store

import "github.com/rateshub/rates-data/internal/model"

// pointRing is a fixed-capacity ring of history points. Once full, each
// push evicts the oldest point. Not safe for concurrent use; MemoryStore
// guards it with its own lock.
type pointRing struct {
	buf      []model.HistoryPoint
	next     int // write position
	count    int
	capacity int
}

func newPointRing(capacity int) *pointRing {
	if capacity < 1 {
		capacity = 1
	}
	return &pointRing{
		buf:      make([]model.HistoryPoint, capacity),
		capacity: capacity,
	}
}

// push appends a point, evicting the oldest when full.
func (r *pointRing) push(p model.HistoryPoint) {
	r.buf[r.next] = p
	r.next = (r.next + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
}

// len returns the number of stored points.
func (r *pointRing) len() int { return r.count }

// snapshot returns the stored points newest-first.
func (r *pointRing) snapshot() []model.HistoryPoint {
	out := make([]model.HistoryPoint, 0, r.count)
	idx := r.next
	for i := 0; i < r.count; i++ {
		idx--
		if idx < 0 {
			idx = r.capacity - 1
		}
		out = append(out, r.buf[idx])
	}
	return out
}
