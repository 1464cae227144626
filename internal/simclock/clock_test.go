package simclock

import (
	"testing"
	"time"
)

func TestSimulatedAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(start)
	if !c.Now().Equal(start) {
		t.Fatalf("expected %v got %v", start, c.Now())
	}
	got := c.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if !got.Equal(want) || !c.Now().Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}
