package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/alloc"
	"github.com/kestrel3d/kestrel/internal/geometry"
	"github.com/kestrel3d/kestrel/pkg/kerr"
	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

// triangleListTopology is every imported primitive's topology: the
// persisted Mesh JSON schema (§6) carries no per-primitive topology
// field, and glTF primitives default to (and in practice are always)
// triangle lists.
const triangleListTopology = gpu.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST

// meshPrimitiveJSON is one entry of the persisted "Mesh JSON" format's
// primitives array (§6): `{geometry: uri, material: uri}`.
type meshPrimitiveJSON struct {
	Geometry string `json:"geometry"`
	Material string `json:"material"`
}

// meshManifest is the "Mesh JSON" format §6 specifies:
// `{asset_type: "mesh", type: "static"|"skinned", name, primitives,
// skeleton?, inverse_bind_matrices?}`.
type meshManifest struct {
	AssetType           string              `json:"asset_type"`
	Type                string              `json:"type"`
	Name                string              `json:"name"`
	Primitives          []meshPrimitiveJSON `json:"primitives"`
	Skeleton            string              `json:"skeleton,omitempty"`
	InverseBindMatrices [][16]float32       `json:"inverse_bind_matrices,omitempty"`
}

// decodedPrimitive is one primitive's CPU-side BinGeometry payload
// plus its resolved material URI, not yet uploaded to the GPU.
type decodedPrimitive struct {
	Geometry    geometry.Geometry
	Joints      *geometry.Joints
	MaterialURI uri.URI
}

// decodedMesh is a mesh manifest's CPU-side decode result: the I/O
// suspension point, safe to produce off the render thread (mirroring
// TextureProvider.Decoded), distinct from the GPU upload every
// primitive's geometry still needs.
type decodedMesh struct {
	Name                string
	Primitives          []decodedPrimitive
	SkeletonURI         uri.URI
	InverseBindMatrices []mgl32.Mat4
}

// decodeMeshManifest reads and validates a mesh manifest, decodes
// every primitive's BinGeometry file, and resolves its skeleton
// reference (if any) — all pure CPU work, with every referenced file
// reported as a Cache dependency.
func decodeMeshManifest(source uri.DataSource, u uri.URI, wantType string) (decodedMesh, []uri.URI, error) {
	raw, err := source.Read(u)
	if err != nil {
		return decodedMesh{}, nil, kerr.New(kerr.NotFound, "MeshProvider.Load", u.String(), err)
	}
	var m meshManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return decodedMesh{}, nil, kerr.New(kerr.CorruptAsset, "MeshProvider.Load", u.String(), err)
	}
	if m.Type != wantType {
		return decodedMesh{}, nil, kerr.New(kerr.CorruptAsset, "MeshProvider.Load", u.String(),
			fmt.Errorf("mesh type %q, want %q", m.Type, wantType))
	}

	dir := u.Parent()
	prims := make([]decodedPrimitive, 0, len(m.Primitives))
	var deps []uri.URI
	for i, prim := range m.Primitives {
		geomURI := dir.Join(prim.Geometry)
		geomRaw, err := source.Read(geomURI)
		if err != nil {
			return decodedMesh{}, nil, kerr.New(kerr.NotFound, "MeshProvider.Load", geomURI.String(), err)
		}
		g, joints, err := geometry.DecodeGeometry(bytes.NewReader(geomRaw))
		if err != nil {
			return decodedMesh{}, nil, fmt.Errorf("MeshProvider.Load: primitive %d: %w", i, err)
		}
		materialURI := dir.Join(prim.Material)
		prims = append(prims, decodedPrimitive{Geometry: g, Joints: joints, MaterialURI: materialURI})
		deps = append(deps, geomURI, materialURI)
	}

	mesh := decodedMesh{Name: m.Name, Primitives: prims}
	if m.Skeleton != "" {
		mesh.SkeletonURI = dir.Join(m.Skeleton)
		deps = append(deps, mesh.SkeletonURI)
	}
	mesh.InverseBindMatrices = make([]mgl32.Mat4, len(m.InverseBindMatrices))
	for i, row := range m.InverseBindMatrices {
		mesh.InverseBindMatrices[i] = xform.Mat4FromRowMajor(row)
	}
	return mesh, deps, nil
}

// uploadPrimitives uploads every decoded primitive's geometry to the
// GPU. Must run on the render thread.
func uploadPrimitives(allocator *alloc.Allocator, prims []decodedPrimitive) ([]MeshPrimitive, error) {
	out := make([]MeshPrimitive, 0, len(prims))
	for i, prim := range prims {
		handle, err := uploadGeometry(allocator, prim.Geometry, prim.Joints)
		if err != nil {
			return nil, fmt.Errorf("MeshProvider.Upload: primitive %d: %w", i, err)
		}
		out = append(out, MeshPrimitive{Geometry: handle, MaterialURI: prim.MaterialURI, Topology: triangleListTopology})
	}
	return out, nil
}

// StaticMeshProvider loads unskinned meshes, splitting the CPU-side
// BinGeometry decode (Decoded, safe off the render thread) from the
// GPU buffer upload (Upload, render-thread only) — the same division
// TextureProvider draws between decode and upload.
type StaticMeshProvider struct {
	Decoded *Cache[decodedMesh]

	source    uri.DataSource
	allocator *alloc.Allocator

	mu       sync.Mutex
	uploaded map[uri.URI]StaticMesh
}

func NewStaticMeshProvider(source uri.DataSource, monitor uri.Monitor, allocator *alloc.Allocator) *StaticMeshProvider {
	p := &StaticMeshProvider{source: source, allocator: allocator, uploaded: make(map[uri.URI]StaticMesh)}
	p.Decoded = NewCache(p.decode, monitor)
	return p
}

func (p *StaticMeshProvider) decode(u uri.URI) (Payload[decodedMesh], error) {
	mesh, deps, err := decodeMeshManifest(p.source, u, "static")
	if err != nil {
		return Payload[decodedMesh]{}, err
	}
	return Payload[decodedMesh]{Asset: mesh, Dependencies: deps}, nil
}

// Upload returns the GPU-ready StaticMesh for u, decoding it first via
// Decoded if necessary, then uploading and caching every primitive's
// geometry. Must be called on the render thread.
func (p *StaticMeshProvider) Upload(u uri.URI) (StaticMesh, error) {
	p.mu.Lock()
	if mesh, ok := p.uploaded[u]; ok {
		p.mu.Unlock()
		return mesh, nil
	}
	p.mu.Unlock()

	decoded, err := p.Decoded.Load(u)
	if err != nil {
		return StaticMesh{}, err
	}
	prims, err := uploadPrimitives(p.allocator, decoded.Primitives)
	if err != nil {
		return StaticMesh{}, err
	}
	mesh := StaticMesh{Name: decoded.Name, Primitives: prims}

	p.mu.Lock()
	p.uploaded[u] = mesh
	p.mu.Unlock()
	return mesh, nil
}

// SkinnedMeshProvider loads meshes bound to a skeleton, mirroring
// StaticMeshProvider's decode/upload split.
type SkinnedMeshProvider struct {
	Decoded *Cache[decodedMesh]

	source    uri.DataSource
	allocator *alloc.Allocator

	mu       sync.Mutex
	uploaded map[uri.URI]SkinnedMesh
}

func NewSkinnedMeshProvider(source uri.DataSource, monitor uri.Monitor, allocator *alloc.Allocator) *SkinnedMeshProvider {
	p := &SkinnedMeshProvider{source: source, allocator: allocator, uploaded: make(map[uri.URI]SkinnedMesh)}
	p.Decoded = NewCache(p.decode, monitor)
	return p
}

func (p *SkinnedMeshProvider) decode(u uri.URI) (Payload[decodedMesh], error) {
	mesh, deps, err := decodeMeshManifest(p.source, u, "skinned")
	if err != nil {
		return Payload[decodedMesh]{}, err
	}
	if mesh.SkeletonURI.IsEmpty() {
		return Payload[decodedMesh]{}, kerr.New(kerr.CorruptAsset, "SkinnedMeshProvider.Load", u.String(),
			fmt.Errorf("skinned mesh missing skeleton"))
	}
	return Payload[decodedMesh]{Asset: mesh, Dependencies: deps}, nil
}

// Upload is SkinnedMeshProvider's render-thread-only GPU upload step.
func (p *SkinnedMeshProvider) Upload(u uri.URI) (SkinnedMesh, error) {
	p.mu.Lock()
	if mesh, ok := p.uploaded[u]; ok {
		p.mu.Unlock()
		return mesh, nil
	}
	p.mu.Unlock()

	decoded, err := p.Decoded.Load(u)
	if err != nil {
		return SkinnedMesh{}, err
	}
	prims, err := uploadPrimitives(p.allocator, decoded.Primitives)
	if err != nil {
		return SkinnedMesh{}, err
	}
	mesh := SkinnedMesh{
		Name:                decoded.Name,
		Primitives:          prims,
		SkeletonURI:         decoded.SkeletonURI,
		InverseBindMatrices: decoded.InverseBindMatrices,
	}

	p.mu.Lock()
	p.uploaded[u] = mesh
	p.mu.Unlock()
	return mesh, nil
}
