package maskbrush

// History is a capacity-bounded stack of raster snapshots. A nil entry is a
// valid snapshot and stands for an empty canvas. When the stack is full,
// pushing a new snapshot evicts the oldest one.
type History struct {
	entries  []*Raster
	capacity int
}

// NewHistory creates a History holding at most capacity entries.
// A capacity less than or equal to zero means the stack is unbounded.
func NewHistory(capacity int) *History {
	return &History{capacity: capacity}
}

// Push adds r on top of the stack and reports whether the oldest entry
// had to be evicted to make room for it.
func (h *History) Push(r *Raster) (evicted bool) {
	if h.capacity > 0 && len(h.entries) >= h.capacity {
		n := len(h.entries) - h.capacity + 1
		// Clear the dropped references so their pixel buffers can be collected.
		for i := 0; i < n; i++ {
			h.entries[i] = nil
		}
		h.entries = append(h.entries[:0], h.entries[n:]...)
		evicted = true
	}
	h.entries = append(h.entries, r)
	return evicted
}

// Pop removes and returns the most recent entry. The second return value
// is false when the stack is empty.
func (h *History) Pop() (*Raster, bool) {
	n := len(h.entries)
	if n == 0 {
		return nil, false
	}
	r := h.entries[n-1]
	h.entries[n-1] = nil
	h.entries = h.entries[:n-1]
	return r, true
}

// Peek returns the most recent entry without removing it.
func (h *History) Peek() (*Raster, bool) {
	if len(h.entries) == 0 {
		return nil, false
	}
	return h.entries[len(h.entries)-1], true
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.entries) }

// Empty reports whether the stack holds no snapshots.
func (h *History) Empty() bool { return len(h.entries) == 0 }

// Capacity returns the maximum number of snapshots, or 0 if unbounded.
func (h *History) Capacity() int {
	if h.capacity < 0 {
		return 0
	}
	return h.capacity
}

// Clear drops all the snapshots.
func (h *History) Clear() {
	for i := range h.entries {
		h.entries[i] = nil
	}
	h.entries = h.entries[:0]
}

// Bytes returns the memory retained by the stored snapshots.
func (h *History) Bytes() int64 {
	var n int64
	for _, r := range h.entries {
		n += r.Bytes()
	}
	return n
}
