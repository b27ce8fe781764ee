package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(ttl time.Duration) (*TTL[string, int], *clock) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, int](ttl)
	c.now = clk.now
	return c, clk
}

func TestTTL_Expiry(t *testing.T) {
	c, clk := newTestCache(time.Minute)
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get = %d,%v want 1,true", v, ok)
	}
	clk.t = clk.t.Add(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.Purge(); n != 1 {
		t.Fatalf("Purge removed %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestTTL_Touch(t *testing.T) {
	c, clk := newTestCache(time.Minute)
	c.Set("a", 1)
	clk.t = clk.t.Add(50 * time.Second)
	c.Touch("a")
	clk.t = clk.t.Add(50 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("touched entry should still be live")
	}
}

func TestTTL_GetOrLoad(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(context.Background(), "k", load)
		if err != nil || v != 42 {
			t.Fatalf("GetOrLoad = %d,%v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "bad", func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatal("errors must not be cached")
	}
}
