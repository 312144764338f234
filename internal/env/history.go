// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

// History is a bounded FIFO of optional readings backed by a ring buffer.
// Once full, appending evicts the oldest entry.
type History struct {
	buf   []*float64
	start int
	n     int
}

// NewHistory returns an empty history holding at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]*float64, capacity)}
}

// Append adds v (nil for a missing reading) as the newest entry.
func (h *History) Append(v *float64) {
	if v != nil {
		v = Float(*v)
	}
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

// Len returns the number of stored entries, nil entries included.
func (h *History) Len() int { return h.n }

// Cap returns the maximum number of entries.
func (h *History) Cap() int { return len(h.buf) }

// Values returns the entries oldest first.
func (h *History) Values() []*float64 {
	out := make([]*float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Latest returns the newest entry, or nil when empty.
func (h *History) Latest() *float64 {
	if h.n == 0 {
		return nil
	}
	return h.buf[(h.start+h.n-1)%len(h.buf)]
}

// Histories keeps one History per reading key, created on first use.
type Histories struct {
	capacity int
	byKey    map[string]*History
}

// NewHistories returns a set of histories each bounded to capacity.
func NewHistories(capacity int) *Histories {
	return &Histories{capacity: capacity, byKey: make(map[string]*History)}
}

// Get returns the history for key, creating it if needed.
func (hs *Histories) Get(key string) *History {
	h, ok := hs.byKey[key]
	if !ok {
		h = NewHistory(hs.capacity)
		hs.byKey[key] = h
	}
	return h
}

// Record appends every value of set to its key's history.
func (hs *Histories) Record(set Set) {
	for k, v := range set {
		hs.Get(k).Append(v)
	}
}
