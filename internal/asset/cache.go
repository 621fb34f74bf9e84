package asset

import (
	"sync"

	"github.com/kestrel3d/kestrel/pkg/uri"
)

// Payload is what a provider's load_payload step produces: the decoded
// value plus the URIs it depends on (textures a material references,
// images a skeleton's animations bind, and so on). Cache subscribes to
// Monitor change notifications on each dependency so an edited
// dependency marks the owning entry out of date rather than silently
// going stale.
type Payload[T any] struct {
	Asset        T
	Dependencies []uri.URI
}

// Loader produces a Payload for a URI not already cached. It runs
// outside Cache's lock, so two concurrent loads of the same URI may
// duplicate work; both attempts must produce an equivalent result
// since whichever finishes last wins the cache slot.
type Loader[T any] func(u uri.URI) (Payload[T], error)

type entry[T any] struct {
	asset T
	deps  []uri.URI
}

// Cache is the generic URI-keyed asset cache every concrete provider
// (shader, texture, material, mesh, skeleton) is built on: a lock held
// only around map mutation, an out-of-date set fed by dependency
// change notifications, and a pluggable Loader for the cache-miss path.
// Grounded on the teacher-adjacent loader.modelCache pattern
// (Carmen-Shannon-oxy-go/engine/loader), generalized from one concrete
// model type to any T via Go generics and widened with the
// out-of-date/dependency-subscription machinery spec's provider model
// requires.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[uri.URI]entry[T]

	load    Loader[T]
	monitor uri.Monitor // nil is valid: no dependency tracking

	outOfDateMu sync.Mutex
	outOfDate   map[uri.URI]struct{}
	subs        map[uri.URI]<-chan struct{}
}

// NewCache builds a Cache that calls load on a miss. monitor may be nil
// if the host application offers no change notifications, in which
// case entries are never marked out of date by dependency edits (only
// by an explicit Remove + reload).
func NewCache[T any](load Loader[T], monitor uri.Monitor) *Cache[T] {
	return &Cache[T]{
		entries:   make(map[uri.URI]entry[T]),
		load:      load,
		monitor:   monitor,
		outOfDate: make(map[uri.URI]struct{}),
		subs:      make(map[uri.URI]<-chan struct{}),
	}
}

// Find returns the cached value for uri without attempting a load.
func (c *Cache[T]) Find(u uri.URI) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[u]
	return e.asset, ok
}

// Load returns the cached value if present; otherwise it calls load
// outside the lock, subscribes to change notifications on each
// dependency the payload reports, inserts the result, and returns it.
func (c *Cache[T]) Load(u uri.URI) (T, error) {
	c.mu.RLock()
	if e, ok := c.entries[u]; ok {
		c.mu.RUnlock()
		return e.asset, nil
	}
	c.mu.RUnlock()

	payload, err := c.load(u)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.entries[u] = entry[T]{asset: payload.Asset, deps: payload.Dependencies}
	c.mu.Unlock()

	for _, dep := range payload.Dependencies {
		c.subscribe(u, dep)
	}

	return payload.Asset, nil
}

// Add inserts or overwrites a cached value directly, bypassing Loader
// (used for procedurally built assets with no backing URI payload).
func (c *Cache[T]) Add(u uri.URI, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[u] = entry[T]{asset: value}
}

// Remove drops a cached value, if present.
func (c *Cache[T]) Remove(u uri.URI) {
	c.mu.Lock()
	delete(c.entries, u)
	c.mu.Unlock()
}

// subscribe registers owner to be marked out of date whenever dep
// changes. Re-subscribing the same (owner, dep) pair is a no-op beyond
// the first call's channel registration, matching "last writer wins"
// for duplicate concurrent loads of the same URI.
func (c *Cache[T]) subscribe(owner, dep uri.URI) {
	if c.monitor == nil {
		return
	}
	c.outOfDateMu.Lock()
	defer c.outOfDateMu.Unlock()
	key := owner + "\x00" + dep
	if _, already := c.subs[key]; already {
		return
	}
	ch := c.monitor.OnModified(dep)
	c.subs[key] = ch
	go func() {
		for range ch {
			c.markOutOfDate(owner)
		}
	}()
}

func (c *Cache[T]) markOutOfDate(u uri.URI) {
	c.outOfDateMu.Lock()
	defer c.outOfDateMu.Unlock()
	c.outOfDate[u] = struct{}{}
}

// ReloadOutOfDate drains the out-of-date set and reloads each entry
// still present in the cache, discarding any load failure for that one
// entry (it stays whatever it was before, to be retried next call).
func (c *Cache[T]) ReloadOutOfDate() {
	c.outOfDateMu.Lock()
	stale := make([]uri.URI, 0, len(c.outOfDate))
	for u := range c.outOfDate {
		stale = append(stale, u)
	}
	c.outOfDate = make(map[uri.URI]struct{})
	c.outOfDateMu.Unlock()

	for _, u := range stale {
		c.mu.RLock()
		_, present := c.entries[u]
		c.mu.RUnlock()
		if !present {
			continue
		}
		payload, err := c.load(u)
		if err != nil {
			c.markOutOfDate(u)
			continue
		}
		c.mu.Lock()
		c.entries[u] = entry[T]{asset: payload.Asset, deps: payload.Dependencies}
		c.mu.Unlock()
		for _, dep := range payload.Dependencies {
			c.subscribe(u, dep)
		}
	}
}
