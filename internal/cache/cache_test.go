package cache

import (
	"testing"
	"time"

	"ledger/internal/log"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string](2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Errorf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("a = %q %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute).WithClock(func() time.Time { return now })

	c.Set("k", 42)
	now = now.Add(30 * time.Second)
	if v, ok := c.Get("k"); !ok || v != 42 {
		t.Fatalf("expected hit before expiry")
	}
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss at expiry")
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Size != 0 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestLRUCache_OverwriteAndDelete(t *testing.T) {
	c := NewLRUCache[string](4, time.Hour)
	c.Set("k", "old")
	c.Set("k", "new")
	if v, _ := c.Get("k"); v != "new" {
		t.Errorf("got %q, want new", v)
	}
	c.Delete("k")
	c.Delete("missing")
	if c.Size() != 0 {
		t.Errorf("Size = %d after delete", c.Size())
	}
}

func TestManager_Sweep(t *testing.T) {
	now := time.Unix(0, 0)
	c := NewLRUCache[string](10, time.Second).WithClock(func() time.Time { return now })
	c.Set("a", "x")
	c.Set("b", "y")

	m := NewManager(log.Discard())
	m.Register(c)
	if got := m.Sweep(); got != 0 {
		t.Fatalf("nothing expired yet, removed %d", got)
	}
	now = now.Add(2 * time.Second)
	if got := m.Sweep(); got != 2 {
		t.Errorf("removed %d, want 2", got)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
