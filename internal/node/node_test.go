package node

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/pkg/xform"
)

func TestAddRoot(t *testing.T) {
	tree := New()
	n := tree.Add(CreateInfo{Name: "root"})
	if n.ID.IsNone() {
		t.Fatal("expected a non-zero id")
	}
	roots := tree.Roots()
	if len(roots) != 1 || roots[0] != n.ID {
		t.Errorf("roots = %v, want [%v]", roots, n.ID)
	}
}

func TestAddChildAppendsToParent(t *testing.T) {
	tree := New()
	root := tree.Add(CreateInfo{Name: "root"})
	child := tree.Add(CreateInfo{Name: "child", Parent: root.ID})

	if len(root.Children) != 1 || root.Children[0] != child.ID {
		t.Errorf("root.Children = %v, want [%v]", root.Children, child.ID)
	}
	if child.Parent != root.ID {
		t.Errorf("child.Parent = %v, want %v", child.Parent, root.ID)
	}
}

func TestRemoveRemovesSubtree(t *testing.T) {
	tree := New()
	root := tree.Add(CreateInfo{Name: "root"})
	child := tree.Add(CreateInfo{Name: "child", Parent: root.ID})
	grandchild := tree.Add(CreateInfo{Name: "grandchild", Parent: child.ID})

	tree.Remove(child.ID)

	if _, ok := tree.Get(child.ID); ok {
		t.Error("child should be removed")
	}
	if _, ok := tree.Get(grandchild.ID); ok {
		t.Error("grandchild should be removed along with its parent")
	}
	if len(root.Children) != 0 {
		t.Errorf("root.Children = %v, want empty", root.Children)
	}
}

func TestReparentMovesNodeAndUpdatesChildLists(t *testing.T) {
	tree := New()
	a := tree.Add(CreateInfo{Name: "a"})
	b := tree.Add(CreateInfo{Name: "b"})
	child := tree.Add(CreateInfo{Name: "child", Parent: a.ID})

	if err := tree.Reparent(child.ID, b.ID); err != nil {
		t.Fatalf("Reparent: %v", err)
	}
	if len(a.Children) != 0 {
		t.Errorf("a.Children = %v, want empty", a.Children)
	}
	if len(b.Children) != 1 || b.Children[0] != child.ID {
		t.Errorf("b.Children = %v, want [%v]", b.Children, child.ID)
	}
	if child.Parent != b.ID {
		t.Errorf("child.Parent = %v, want %v", child.Parent, b.ID)
	}
}

func TestReparentRejectsCycle(t *testing.T) {
	tree := New()
	root := tree.Add(CreateInfo{Name: "root"})
	child := tree.Add(CreateInfo{Name: "child", Parent: root.ID})
	grandchild := tree.Add(CreateInfo{Name: "grandchild", Parent: child.ID})

	if err := tree.Reparent(root.ID, grandchild.ID); err == nil {
		t.Fatal("expected cycle rejection")
	}
	if err := tree.Reparent(child.ID, child.ID); err == nil {
		t.Fatal("expected self-parent rejection")
	}
}

func TestGlobalTransformComposesAncestors(t *testing.T) {
	tree := New()
	root := tree.Add(CreateInfo{Name: "root", Transform: xform.Data{
		Position:    mgl32.Vec3{10, 0, 0},
		Orientation: mgl32.QuatIdent(),
		Scale:       mgl32.Vec3{1, 1, 1},
	}})
	child := tree.Add(CreateInfo{Name: "child", Parent: root.ID, Transform: xform.Data{
		Position:    mgl32.Vec3{0, 5, 0},
		Orientation: mgl32.QuatIdent(),
		Scale:       mgl32.Vec3{1, 1, 1},
	}})

	global := tree.GlobalTransform(child)
	pos := mgl32.Vec3{global[12], global[13], global[14]}
	want := mgl32.Vec3{10, 5, 0}
	if pos.Sub(want).Len() > 1e-5 {
		t.Errorf("global position = %v, want %v", pos, want)
	}
}
