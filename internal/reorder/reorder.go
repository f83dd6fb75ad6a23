// Package reorder implements the sliding window that stably sorts
// packets by timestamp within an out-of-order tolerance.
//
// Every packet inside the window is kept sorted by timestamp; packets
// with equal timestamps keep their arrival order. Whenever the span
// between the oldest and the newest buffered packet exceeds the
// tolerance, the oldest ones are evicted to the output. The window is
// touched only from ordered-task closures, so it needs no locking.
package reorder

import "sort"

type entry struct {
	micros int64
	text   string
}

// Window buffers packets up to a timestamp tolerance in microseconds.
type Window struct {
	tolerance int64
	entries   []entry

	emit func(text string) error
}

// NewWindow returns a window with the given tolerance. emit is called
// for each packet leaving the window, oldest first.
func NewWindow(toleranceMicros int64, emit func(text string) error) *Window {
	return &Window{tolerance: toleranceMicros, emit: emit}
}

// Update inserts a packet and evicts everything older than the newest
// timestamp minus the tolerance.
//
// Most packets arrive nearly in order, so the insertion point is
// searched from the tail.
func (w *Window) Update(micros int64, text string) error {
	// Insert after the last entry with timestamp <= micros, keeping
	// equal timestamps stable.
	i := len(w.entries)
	if i > 0 && w.entries[i-1].micros > micros {
		i = sort.Search(len(w.entries), func(i int) bool {
			return w.entries[i].micros > micros
		})
	}
	w.entries = append(w.entries, entry{})
	copy(w.entries[i+1:], w.entries[i:])
	w.entries[i] = entry{micros: micros, text: text}

	newest := w.entries[len(w.entries)-1].micros
	evict := 0
	for evict < len(w.entries) && newest-w.entries[evict].micros > w.tolerance {
		if err := w.emit(w.entries[evict].text); err != nil {
			return err
		}
		evict++
	}
	w.entries = w.entries[evict:]
	return nil
}

// Flush sends every remaining packet to the output in sequence.
func (w *Window) Flush() error {
	for _, e := range w.entries {
		if err := w.emit(e.text); err != nil {
			return err
		}
	}
	w.entries = w.entries[:0]
	return nil
}

// Len returns the number of buffered packets.
func (w *Window) Len() int {
	return len(w.entries)
}
