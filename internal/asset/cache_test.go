package asset

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kestrel3d/kestrel/pkg/uri"
)

type fakeMonitor struct {
	channels map[uri.URI]chan struct{}
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{channels: make(map[uri.URI]chan struct{})}
}

func (m *fakeMonitor) OnModified(u uri.URI) <-chan struct{} {
	ch := make(chan struct{}, 1)
	m.channels[u] = ch
	return ch
}

func (m *fakeMonitor) Unsubscribe(u uri.URI, ch <-chan struct{}) {
	delete(m.channels, u)
}

func (m *fakeMonitor) fire(u uri.URI) {
	m.channels[u] <- struct{}{}
}

func TestCacheLoadCachesResult(t *testing.T) {
	var calls int32
	c := NewCache(func(u uri.URI) (Payload[string], error) {
		atomic.AddInt32(&calls, 1)
		return Payload[string]{Asset: "loaded:" + string(u)}, nil
	}, nil)

	v, err := c.Load("a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v != "loaded:a" {
		t.Fatalf("Load = %q", v)
	}

	v2, err := c.Load("a")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if v2 != v {
		t.Fatalf("second Load = %q, want %q", v2, v)
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}
}

func TestCacheFindWithoutLoad(t *testing.T) {
	c := NewCache(func(u uri.URI) (Payload[int], error) {
		return Payload[int]{Asset: 1}, nil
	}, nil)

	if _, ok := c.Find("missing"); ok {
		t.Fatal("Find reported a hit for an unloaded uri")
	}
	if _, err := c.Load("present"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := c.Find("present"); !ok || v != 1 {
		t.Fatalf("Find = %v, %v, want 1, true", v, ok)
	}
}

func TestCacheLoadPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	c := NewCache(func(u uri.URI) (Payload[int], error) {
		return Payload[int]{}, wantErr
	}, nil)

	if _, err := c.Load("x"); !errors.Is(err, wantErr) {
		t.Fatalf("Load error = %v, want %v", err, wantErr)
	}
	if _, ok := c.Find("x"); ok {
		t.Fatal("a failed load must not populate the cache")
	}
}

func TestCacheAddBypassesLoader(t *testing.T) {
	c := NewCache(func(u uri.URI) (Payload[string], error) {
		t.Fatal("loader should not be called for an Added entry")
		return Payload[string]{}, nil
	}, nil)

	c.Add("procedural", "hand-built")
	if v, ok := c.Find("procedural"); !ok || v != "hand-built" {
		t.Fatalf("Find = %v, %v", v, ok)
	}
}

func TestCacheRemove(t *testing.T) {
	c := NewCache(func(u uri.URI) (Payload[int], error) {
		return Payload[int]{Asset: 7}, nil
	}, nil)
	c.Load("x")
	c.Remove("x")
	if _, ok := c.Find("x"); ok {
		t.Fatal("Find found a value after Remove")
	}
}

func TestCacheReloadOutOfDateReloadsOnDependencyChange(t *testing.T) {
	mon := newFakeMonitor()
	var version int32
	c := NewCache(func(u uri.URI) (Payload[int32], error) {
		v := atomic.AddInt32(&version, 1)
		return Payload[int32]{Asset: v, Dependencies: []uri.URI{"texture.png"}}, nil
	}, mon)

	first, err := c.Load("material.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != 1 {
		t.Fatalf("first load = %d, want 1", first)
	}

	mon.fire("texture.png")

	// the subscription goroutine races the test; give it a moment to
	// mark the entry out of date before reloading.
	deadline := time.Now().Add(time.Second)
	for {
		c.ReloadOutOfDate()
		if v, _ := c.Find("material.json"); v == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("entry was never reloaded after its dependency changed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCacheReloadOutOfDateIgnoresRemovedEntries(t *testing.T) {
	mon := newFakeMonitor()
	c := NewCache(func(u uri.URI) (Payload[int], error) {
		return Payload[int]{Asset: 1, Dependencies: []uri.URI{"dep"}}, nil
	}, mon)
	c.Load("x")
	c.Remove("x")

	mon.fire("dep")
	time.Sleep(10 * time.Millisecond)
	c.ReloadOutOfDate() // must not panic or resurrect a removed entry

	if _, ok := c.Find("x"); ok {
		t.Fatal("ReloadOutOfDate resurrected a removed entry")
	}
}
