package redisad

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestCache_RoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	c := New(srv.Addr(), "", 0)
	ctx := context.Background()

	type coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}

	var got coord
	ok, err := c.Get(ctx, "geo:mumbai", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss on empty cache")
	}

	want := coord{Lat: 19.07, Lon: 72.87}
	if err := c.Set(ctx, "geo:mumbai", want, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err = c.Get(ctx, "geo:mumbai", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got != want {
		t.Fatalf("got %+v ok=%v, want %+v", got, ok, want)
	}

	if err := c.Del(ctx, "geo:mumbai"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "geo:mumbai", &got); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	c := New(srv.Addr(), "", 0)
	ctx := context.Background()

	if err := c.Set(ctx, "geo:delhi", map[string]float64{"lat": 28.6}, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	srv.FastForward(2 * time.Second)

	var got map[string]float64
	if ok, _ := c.Get(ctx, "geo:delhi", &got); ok {
		t.Fatal("expected entry to expire")
	}
}
