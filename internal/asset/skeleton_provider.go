package asset

import (
	"encoding/json"

	"github.com/kestrel3d/kestrel/pkg/kerr"
	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

// SkeletonJoint is one entry of a loaded skeleton's flattened,
// densely-renumbered joint list. Self is the joint's original glTF
// node index, kept for traceability back to the source asset; Parent
// is the renumbered index of its parent joint within this skeleton
// (-1 for the root).
type SkeletonJoint struct {
	Name      string
	Transform xform.Data
	Self      int
	Parent    int
	Children  []int
}

// Clip names one of a skeleton's animations, letting a SkeletonController
// look an animation up by a human-readable name instead of its URI.
type Clip struct {
	Name         string
	AnimationURI uri.URI
}

// Skeleton is a loaded "Skeleton JSON" asset (§6): the joint
// hierarchy an animation instance is built over, plus the named clips
// and raw animation files available for it.
type Skeleton struct {
	Name       string
	Joints     []SkeletonJoint
	Clips      []Clip
	Animations []uri.URI
}

// jointJSON mirrors one "joints" array entry of the persisted
// Skeleton JSON schema: `{name, transform, self, parent?, children}`.
type jointJSON struct {
	Name     string     `json:"name"`
	Transform [16]float32 `json:"transform"`
	Self      int        `json:"self"`
	Parent    *int       `json:"parent,omitempty"`
	Children  []int      `json:"children,omitempty"`
}

type clipJSON struct {
	Name      string `json:"name"`
	Animation string `json:"animation"`
}

// skeletonManifest is the "Skeleton JSON" format §6 specifies:
// `{asset_type: "skeleton", name, joints, clips, animations}`.
type skeletonManifest struct {
	AssetType  string     `json:"asset_type"`
	Name       string     `json:"name"`
	Joints     []jointJSON `json:"joints"`
	Clips      []clipJSON `json:"clips,omitempty"`
	Animations []string   `json:"animations,omitempty"`
}

// SkeletonProvider reads a skeleton JSON descriptor into a Skeleton,
// resolving every clip and animation reference relative to the
// manifest's own directory and reporting them as Cache dependencies.
// Grounded on MaterialProvider's manifest-resolution pattern
// (material_provider.go), generalized from a flat texture/shader set
// to a joint tree plus a named-clip table.
type SkeletonProvider struct {
	source uri.DataSource
}

func NewSkeletonProvider(source uri.DataSource) *SkeletonProvider {
	return &SkeletonProvider{source: source}
}

func (p *SkeletonProvider) NewCache(monitor uri.Monitor) *Cache[Skeleton] {
	return NewCache(p.load, monitor)
}

func (p *SkeletonProvider) load(u uri.URI) (Payload[Skeleton], error) {
	raw, err := p.source.Read(u)
	if err != nil {
		return Payload[Skeleton]{}, kerr.New(kerr.NotFound, "SkeletonProvider.Load", u.String(), err)
	}
	var m skeletonManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Payload[Skeleton]{}, kerr.New(kerr.CorruptAsset, "SkeletonProvider.Load", u.String(), err)
	}

	dir := u.Parent()
	joints := make([]SkeletonJoint, len(m.Joints))
	for i, j := range m.Joints {
		parent := -1
		if j.Parent != nil {
			parent = *j.Parent
		}
		pos, orient, scale := xform.Decompose(xform.Mat4FromRowMajor(j.Transform))
		joints[i] = SkeletonJoint{
			Name:      j.Name,
			Transform: xform.Data{Position: pos, Orientation: orient, Scale: scale},
			Self:      j.Self,
			Parent:    parent,
			Children:  append([]int(nil), j.Children...),
		}
	}

	var deps []uri.URI
	clips := make([]Clip, len(m.Clips))
	for i, c := range m.Clips {
		animURI := dir.Join(c.Animation)
		clips[i] = Clip{Name: c.Name, AnimationURI: animURI}
		deps = append(deps, animURI)
	}
	animations := make([]uri.URI, len(m.Animations))
	for i, a := range m.Animations {
		animations[i] = dir.Join(a)
		deps = append(deps, animations[i])
	}

	skeleton := Skeleton{Name: m.Name, Joints: joints, Clips: clips, Animations: animations}
	return Payload[Skeleton]{Asset: skeleton, Dependencies: deps}, nil
}
