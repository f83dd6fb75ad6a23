package reorder

import (
	"reflect"
	"testing"
)

func collector() (*[]string, func(string) error) {
	var out []string
	return &out, func(s string) error {
		out = append(out, s)
		return nil
	}
}

func TestWindowSwapsWithinTolerance(t *testing.T) {
	out, emit := collector()
	w := NewWindow(1_000_000, emit)

	// Arrives late by 99.5ms, well inside the 1s window.
	w.Update(100_000, "late")
	w.Update(500, "early")
	w.Flush()

	want := []string{"early", "late"}
	if !reflect.DeepEqual(*out, want) {
		t.Fatalf("emitted %v, want %v", *out, want)
	}
}

func TestWindowKeepsArrivalOrderOutsideTolerance(t *testing.T) {
	out, emit := collector()
	w := NewWindow(1_000_000, emit)

	// The second packet is newer by more than the tolerance, so the
	// first is evicted before the third (older) one arrives.
	w.Update(0, "a")
	w.Update(2_000_000, "b")
	w.Update(500_000, "c")
	w.Flush()

	want := []string{"a", "c", "b"}
	if !reflect.DeepEqual(*out, want) {
		t.Fatalf("emitted %v, want %v", *out, want)
	}
}

func TestWindowStableForEqualTimestamps(t *testing.T) {
	out, emit := collector()
	w := NewWindow(10, emit)

	w.Update(5, "first")
	w.Update(5, "second")
	w.Update(5, "third")
	w.Flush()

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(*out, want) {
		t.Fatalf("equal timestamps must keep arrival order: %v", *out)
	}
}

func TestWindowEvictsOldestFirst(t *testing.T) {
	out, emit := collector()
	w := NewWindow(100, emit)

	w.Update(10, "a")
	w.Update(20, "b")
	w.Update(300, "newest") // evicts both, oldest first

	want := []string{"a", "b"}
	if !reflect.DeepEqual(*out, want) {
		t.Fatalf("emitted %v, want %v", *out, want)
	}
	if w.Len() != 1 {
		t.Fatalf("window should hold the newest packet, len=%d", w.Len())
	}
}
