package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type payload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0, time.Minute)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "geo:city:1", payload{ID: 1, Name: "Bogotá"})

	var got payload
	if !c.GetJSON(ctx, "geo:city:1", &got) {
		t.Fatal("expected cache hit")
	}
	if got.Name != "Bogotá" {
		t.Fatalf("name = %q", got.Name)
	}
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)

	var got payload
	if c.GetJSON(context.Background(), "geo:city:404", &got) {
		t.Fatal("expected miss for absent key")
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "geo:city:1", payload{ID: 1})
	c.Delete(ctx, "geo:city:1")

	var got payload
	if c.GetJSON(ctx, "geo:city:1", &got) {
		t.Fatal("key survived delete")
	}
}

func TestEntriesExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0, time.Second)
	defer c.Close()
	ctx := context.Background()

	c.SetJSON(ctx, "geo:city:1", payload{ID: 1})
	mr.FastForward(2 * time.Second)

	var got payload
	if c.GetJSON(ctx, "geo:city:1", &got) {
		t.Fatal("entry outlived its TTL")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	c.SetJSON(ctx, "k", payload{})
	c.Delete(ctx, "k")
	if c.GetJSON(ctx, "k", &payload{}) {
		t.Fatal("nil cache reported a hit")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestEmptyAddrDisablesCache(t *testing.T) {
	if New("", "", 0, time.Minute) != nil {
		t.Fatal("empty addr should return nil")
	}
}
