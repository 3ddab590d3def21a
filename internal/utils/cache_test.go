package utils

import (
	"errors"
	"testing"
	"time"
)

func TestLocalCacheExpiry(t *testing.T) {
	c := NewLocalCache(10)
	c.Set("k", 42, time.Hour)
	if v, ok := c.Get("k").(int); !ok || v != 42 {
		t.Fatalf("expected 42, got %v", c.Get("k"))
	}

	c.Set("old", "x", -time.Second)
	if v := c.Get("old"); v != nil {
		t.Errorf("expected expired entry to be dropped, got %v", v)
	}

	c.Delete("k")
	if v := c.Get("k"); v != nil {
		t.Errorf("expected deleted entry to be gone, got %v", v)
	}
}

func TestParseID(t *testing.T) {
	if id, ok := ParseID("17"); !ok || id != 17 {
		t.Errorf("expected 17, got %d %v", id, ok)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, ok := ParseID(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestFetchLoadsOnceAndSkipsErrors(t *testing.T) {
	c := NewLocalCache(10)
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"a"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(c, "list", time.Hour, load)
		if err != nil || len(v) != 1 {
			t.Fatalf("unexpected result %v %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected a single load, got %d", calls)
	}

	boom := errors.New("boom")
	if _, err := Fetch(c, "broken", time.Hour, func() (int, error) { return 0, boom }); err != boom {
		t.Errorf("expected load error, got %v", err)
	}
	if _, ok := Lookup[int](c, "broken"); ok {
		t.Error("failed load must not be cached")
	}

	c.Set("n", 7, time.Hour)
	if _, ok := Lookup[string](c, "n"); ok {
		t.Error("wrong type should be a miss")
	}
}
