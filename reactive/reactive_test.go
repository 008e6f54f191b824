package reactive

import (
	"slices"
	"testing"
)

func TestValue(t *testing.T) {
	v := NewValue(1)
	var seen []int
	unsub := v.Subscribe(func(x int) { seen = append(seen, x) })

	if v.Set(1) {
		t.Error("Set() of the same value reported change")
	}
	v.Set(2)
	v.Set(3)
	unsub()
	unsub()
	v.Set(4)

	if !slices.Equal(seen, []int{2, 3}) {
		t.Errorf("seen = %v, want [2 3]", seen)
	}
	if v.Get() != 4 {
		t.Errorf("Get() = %d, want 4", v.Get())
	}
	if v.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", v.Subscribers())
	}
}

func TestValue_UnsubscribeDuringNotify(t *testing.T) {
	v := NewValue("")
	calls := 0
	var unsubB func()
	v.Subscribe(func(string) { unsubB() })
	unsubB = v.Subscribe(func(string) { calls++ })

	v.Set("x")
	if calls != 0 {
		t.Errorf("removed subscriber was called %d times", calls)
	}
}

func TestFocus_Exclusive(t *testing.T) {
	f := NewFocus()
	var events []string
	f.Subscribe(func(id string) { events = append(events, id) })

	f.Set("a")
	f.Set("a")
	f.Set("b")
	if !slices.Equal(events, []string{"a", "", "b"}) {
		t.Errorf("events = %q, want [a  b]", events)
	}
	if f.Is("a") || !f.Is("b") {
		t.Errorf("Current() = %q", f.Current())
	}

	if f.ClearIf("a") {
		t.Error("ClearIf() cleared focus held by another block")
	}
	if !f.ClearIf("b") || f.Current() != "" {
		t.Error("ClearIf() did not clear the holder")
	}
	if f.Is("") {
		t.Error("empty id must never be reported as focused")
	}
}
