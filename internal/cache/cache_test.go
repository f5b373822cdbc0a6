package cache

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

func TestEvictsByEntryCount(t *testing.T) {
	c := New(3, 1<<20, time.Minute, false)

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte("v"), 0)
	}

	if _, ok, _ := c.Get("k0"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	for i := 1; i < 4; i++ {
		if _, ok, _ := c.Get(fmt.Sprintf("k%d", i)); !ok {
			t.Fatalf("k%d should have survived", i)
		}
	}
}

func TestEvictsByByteSize(t *testing.T) {
	c := New(100, 100, time.Minute, false)

	c.Set("a", make([]byte, 60), 0)
	c.Set("b", make([]byte, 60), 0) // pushes total to 120, evicts "a"

	if _, ok, _ := c.Get("a"); ok {
		t.Fatal("expected size pressure to evict the LRU entry")
	}
	if _, ok, _ := c.Get("b"); !ok {
		t.Fatal("most recent entry must survive")
	}
	if s := c.Stats(); s.Bytes > 100 {
		t.Fatalf("byte ceiling violated: %d", s.Bytes)
	}
}

func TestReadRefreshesRecency(t *testing.T) {
	c := New(2, 1<<20, time.Minute, false)

	c.Set("old", []byte("1"), 0)
	c.Set("hot", []byte("2"), 0)

	// Touch "old" so "hot" becomes the LRU victim.
	if _, ok, _ := c.Get("old"); !ok {
		t.Fatal("setup read failed")
	}
	c.Set("new", []byte("3"), 0)

	if _, ok, _ := c.Get("old"); !ok {
		t.Fatal("recently read entry was evicted")
	}
	if _, ok, _ := c.Get("hot"); ok {
		t.Fatal("least recently used entry survived")
	}
}

func TestExpiryWithoutStaleServes(t *testing.T) {
	c := New(10, 1<<20, time.Minute, false)
	c.Set("k", []byte("v"), 5*time.Millisecond)

	time.Sleep(10 * time.Millisecond)

	if _, ok, _ := c.Get("k"); ok {
		t.Fatal("expired entry served with stale serving disabled")
	}
	if s := c.Stats(); s.Entries != 0 {
		t.Fatalf("expired entry retained: %d entries", s.Entries)
	}
}

func TestExpiryWithStaleServes(t *testing.T) {
	c := New(10, 1<<20, time.Minute, true)
	c.Set("k", []byte("v"), 5*time.Millisecond)

	time.Sleep(10 * time.Millisecond)

	v, ok, stale := c.Get("k")
	if !ok || !stale {
		t.Fatalf("expected stale hit, got ok=%v stale=%v", ok, stale)
	}
	if !bytes.Equal(v, []byte("v")) {
		t.Fatalf("stale payload mismatch: %q", v)
	}

	// A stale serve drops the entry; the next read must miss so the
	// caller rebuilds instead of reading the stale value as fresh.
	if _, ok, _ := c.Get("k"); ok {
		t.Fatal("stale entry served more than once")
	}
	if s := c.Stats(); s.Entries != 0 {
		t.Fatalf("stale entry retained: %d entries", s.Entries)
	}
}

func TestSetRefreshesExistingEntry(t *testing.T) {
	c := New(10, 1<<20, time.Minute, false)
	c.Set("k", []byte("aaaa"), 0)
	c.Set("k", []byte("bb"), 0)

	v, ok, _ := c.Get("k")
	if !ok || !bytes.Equal(v, []byte("bb")) {
		t.Fatalf("expected refreshed value, got ok=%v v=%q", ok, v)
	}
	if s := c.Stats(); s.Entries != 1 || s.Bytes != 2 {
		t.Fatalf("bookkeeping off after overwrite: %+v", s)
	}
}

func TestInvalidateByPrefix(t *testing.T) {
	c := New(10, 1<<20, time.Minute, false)
	c.Set("districts:list", []byte("1"), 0)
	c.Set("districts:2726", []byte("2"), 0)
	c.Set("rankings:wage", []byte("3"), 0)

	if removed := c.Invalidate("districts:"); removed != 2 {
		t.Fatalf("Invalidate removed %d, want 2", removed)
	}
	if _, ok, _ := c.Get("rankings:wage"); !ok {
		t.Fatal("unrelated entry was dropped")
	}

	if removed := c.Invalidate(""); removed != 1 {
		t.Fatalf("empty-prefix flush removed %d, want 1", removed)
	}
	if s := c.Stats(); s.Entries != 0 || s.Bytes != 0 {
		t.Fatalf("cache not empty after flush: %+v", s)
	}
}

func TestStatsCountHitsAndMisses(t *testing.T) {
	c := New(10, 1<<20, time.Minute, false)
	c.Set("k", []byte("v"), 0)

	c.Get("k")
	c.Get("k")
	c.Get("absent")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 2/1", s.Hits, s.Misses)
	}
}
