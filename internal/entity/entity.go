// Package entity implements the Scene's entity store (§4.10): a flat,
// id-keyed registry of entities, each an attachment point for zero or
// more Components. Grounded on vala/ecs/world.go's entity lifecycle
// (CreateEntity/DeleteEntity/EntityExists), generalized from per-type
// component maps to a heterogeneous Component slice per entity, since
// the persisted Scene JSON's `components: [...]` array is itself a
// heterogeneous, per-entity list rather than one column per component
// type.
package entity

import (
	"sort"

	"github.com/kestrel3d/kestrel/internal/frame"
	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/pkg/idpool"
)

// Tag distinguishes the entity id type space from node.ID and every
// other idpool.ID[T] in the engine.
type Tag struct{}

// ID is an entity handle; the zero value means "none".
type ID = idpool.ID[Tag]

// TickContext is what each attached Component.Tick receives: the
// entity's own node (components mutate it directly, e.g.
// SkeletonController writing joint transforms) and the frame's dt.
// Extent is only meaningful for UI-root entities, which lay themselves
// out against the current framebuffer size (§4.10 step 5, "tick the UI
// root with current input/extent"); ordinary scene entities see it
// zeroed.
type TickContext struct {
	Tree   *node.Tree
	Node   node.ID
	DT     float32
	Extent [2]uint32
}

// RenderContext is what each attached Component.Render receives: the
// node tree (to resolve the entity's world transform) and the frame's
// draw list to submit into. Providers is a pointer so components never
// import internal/asset's concrete provider types directly, keeping
// the dependency direction Scene -> entity -> (providers interface).
type RenderContext struct {
	Tree      *node.Tree
	Node      node.ID
	DrawList  *frame.DrawList
	Providers Providers
}

// Component is one behavior attached to an Entity. Components never
// reference their owning Entity directly — every method receives the
// node/tree/draw-list it needs, so a Component can be unit tested
// against a bare node.Tree.
type Component interface {
	Tick(ctx TickContext)
	Render(ctx RenderContext)
}

// Entity is {id, node, components, destroyed} — the tree's
// counterpart for behavior instead of hierarchy. A destroyed entity is
// kept in the store until the next Sweep so Tick can still run its
// removal-adjacent bookkeeping the same frame it's flagged.
type Entity struct {
	ID         ID
	Node       node.ID
	Components []Component
	Destroyed  bool
}

// AddComponent attaches c to the entity.
func (e *Entity) AddComponent(c Component) {
	e.Components = append(e.Components, c)
}

// Store is a map<id, Entity> plus a monotonically increasing id pool,
// mirroring the spec's "EntityStore (map<Id<Entity>, Entity>)".
type Store struct {
	pool     idpool.Pool[Tag]
	entities map[ID]*Entity
}

// NewStore returns an empty entity store.
func NewStore() *Store {
	return &Store{entities: make(map[ID]*Entity)}
}

// Create allocates a strictly increasing id and registers a new entity
// bound to the given node.
func (s *Store) Create(n node.ID) *Entity {
	id := s.pool.Next()
	e := &Entity{ID: id, Node: n}
	s.entities[id] = e
	return e
}

// Get looks up an entity by id.
func (s *Store) Get(id ID) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Destroy flags id for removal; it (and its node) are actually
// dropped by the next Sweep, per §4.10's tick step 3.
func (s *Store) Destroy(id ID) {
	if e, ok := s.entities[id]; ok {
		e.Destroyed = true
	}
}

// Active returns every non-destroyed entity sorted by ascending id,
// giving the stable iteration order §4.10's tick step 1 requires.
func (s *Store) Active() []*Entity {
	out := make([]*Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if !e.Destroyed {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sweep removes every destroyed entity from the store and returns the
// node ids they owned, so the caller can remove those nodes (and their
// subtrees) from the node tree — §4.10 tick step 3: "Remove all
// entities flagged destroyed; their nodes are removed from the tree."
func (s *Store) Sweep() []node.ID {
	var removedNodes []node.ID
	for id, e := range s.entities {
		if e.Destroyed {
			removedNodes = append(removedNodes, e.Node)
			delete(s.entities, id)
		}
	}
	return removedNodes
}

// Len returns the number of entities currently in the store
// (including any not yet swept).
func (s *Store) Len() int { return len(s.entities) }
