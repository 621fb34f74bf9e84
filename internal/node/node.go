// Package node implements the scene's node tree: a flat map of nodes
// keyed by id, each owning an ordered list of child ids, grounded on
// the teacher engine's map-keyed-by-id entity registry but holding
// parent/child edges instead of component tables.
package node

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/pkg/idpool"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

// Tag distinguishes the ID type space for nodes from every other
// idpool.ID[T] in the engine (entities, assets).
type Tag struct{}

// ID is a node handle; the zero value means "none" / root's parent.
type ID = idpool.ID[Tag]

// EntityID aliases the entity id type so Node doesn't import the
// entity package (scene depends on node, not the reverse).
type EntityID uint32

// Node is {id, name, transform, parent, children, entity}, the tree's
// single storage unit.
type Node struct {
	ID        ID
	Name      string
	Transform *xform.Transform
	Parent    ID
	Children  []ID
	Entity    EntityID
}

// Tree is a map<id, Node> plus a root list, invariants: every
// non-root node's parent lists it in its children; no cycles;
// removing a node removes its whole subtree.
type Tree struct {
	pool  idpool.Pool[Tag]
	nodes map[ID]*Node
	roots []ID
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{nodes: make(map[ID]*Node)}
}

// CreateInfo describes a node to add.
type CreateInfo struct {
	Name      string
	Transform xform.Data
	Parent    ID // zero == root
	Entity    EntityID
}

// Add allocates a strictly increasing id and inserts a node, appending
// it to its parent's children (or the root list when Parent is zero).
func (t *Tree) Add(info CreateInfo) *Node {
	id := t.pool.Next()
	tr := xform.New()
	tr.SetData(info.Transform)
	n := &Node{ID: id, Name: info.Name, Transform: tr, Parent: info.Parent, Entity: info.Entity}
	t.nodes[id] = n

	if info.Parent.IsNone() {
		t.roots = append(t.roots, id)
	} else if parent, ok := t.nodes[info.Parent]; ok {
		parent.Children = append(parent.Children, id)
	} else {
		// Unknown parent: fall back to root so the node is never lost.
		t.roots = append(t.roots, id)
		n.Parent = 0
	}
	return n
}

// Get looks up a node by id.
func (t *Tree) Get(id ID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// ForEach visits every node in the tree in unspecified order.
func (t *Tree) ForEach(f func(*Node)) {
	for _, n := range t.nodes {
		f(n)
	}
}

// Remove deletes id and its entire subtree, unlinking it from its
// parent (or the root list) first.
func (t *Tree) Remove(id ID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	t.unlink(n)
	t.removeSubtree(id)
}

func (t *Tree) unlink(n *Node) {
	if n.Parent.IsNone() {
		t.roots = removeID(t.roots, n.ID)
		return
	}
	if parent, ok := t.nodes[n.Parent]; ok {
		parent.Children = removeID(parent.Children, n.ID)
	}
}

func (t *Tree) removeSubtree(id ID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, child := range append([]ID(nil), n.Children...) {
		t.removeSubtree(child)
	}
	delete(t.nodes, id)
}

// Reparent moves id to be a child of newParent, rejecting moves that
// would create a cycle (newParent being id or a descendant of id).
func (t *Tree) Reparent(id, newParent ID) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("node: unknown id %d", id)
	}
	if !newParent.IsNone() {
		if _, ok := t.nodes[newParent]; !ok {
			return fmt.Errorf("node: unknown parent id %d", newParent)
		}
		if newParent == id || t.isDescendant(id, newParent) {
			return fmt.Errorf("node: reparenting %d under %d would create a cycle", id, newParent)
		}
	}

	t.unlink(n)
	n.Parent = newParent
	if newParent.IsNone() {
		t.roots = append(t.roots, id)
	} else {
		parent := t.nodes[newParent]
		parent.Children = append(parent.Children, id)
	}
	return nil
}

func (t *Tree) isDescendant(ancestor, candidate ID) bool {
	n, ok := t.nodes[candidate]
	if !ok {
		return false
	}
	for {
		if n.Parent.IsNone() {
			return false
		}
		if n.Parent == ancestor {
			return true
		}
		n, ok = t.nodes[n.Parent]
		if !ok {
			return false
		}
	}
}

// GlobalTransform walks from n to the root multiplying matrices along
// the way; it is never cached, matching the tree's no-caching
// invariant for global transforms.
func (t *Tree) GlobalTransform(n *Node) mgl32.Mat4 {
	mat := n.Transform.Matrix()
	cur := n
	for !cur.Parent.IsNone() {
		parent, ok := t.nodes[cur.Parent]
		if !ok {
			break
		}
		mat = parent.Transform.Matrix().Mul4(mat)
		cur = parent
	}
	return mat
}

// Roots returns the current top-level node ids.
func (t *Tree) Roots() []ID {
	out := make([]ID, len(t.roots))
	copy(out, t.roots)
	return out
}

// Len returns the number of nodes currently in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

func removeID(ids []ID, target ID) []ID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
