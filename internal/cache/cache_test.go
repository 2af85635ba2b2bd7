package cache

import (
	"sync"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2020, 11, 26, 14, 54, 0, 0, time.UTC)}
	c := NewWithClock(clk.now)

	c.Set("index", []byte("v1"), time.Second)
	if v, ok := c.Get("index"); !ok || string(v) != "v1" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	clk.advance(999 * time.Millisecond)
	if _, ok := c.Get("index"); !ok {
		t.Fatal("entry expired early")
	}

	clk.advance(time.Millisecond)
	if _, ok := c.Get("index"); ok {
		t.Fatal("entry outlived its ttl")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry kept, Len = %d", c.Len())
	}
}

func TestClearAndDelete(t *testing.T) {
	c := New()
	c.Set("a", []byte("1"), time.Minute)
	c.Set("b", []byte("2"), time.Minute)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a present after Delete")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("b present after Clear")
	}
}

func TestSetSweepsExpired(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewWithClock(clk.now)
	c.Set("old", []byte("x"), time.Second)
	clk.advance(2 * time.Second)
	c.Set("new", []byte("y"), time.Second)
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Set("index", []byte("page"), time.Minute)
			c.Get("index")
		}()
	}
	wg.Wait()
	if v, ok := c.Get("index"); !ok || string(v) != "page" {
		t.Errorf("Get = %q, %v", v, ok)
	}
}
