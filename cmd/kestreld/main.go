// Command kestreld is a stub demonstrating how an embedding
// application wires the engine's scene and frame-graph types together
// for one tick. It is not the demo/editor executable spec.md places
// out of scope (§1): it never opens a window, creates a Vulkan
// instance, or acquires a swapchain image, since the windowing/input
// layer that would supply a surface handle and framebuffer extent is
// itself an external collaborator the engine only specifies an
// interface for (§6). What it does show, end to end, is the part that
// is in scope: building a Scene, ticking it, and walking the result
// into the frame graph's draw lists.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kestrel3d/kestrel/internal/asset"
	"github.com/kestrel3d/kestrel/internal/config"
	"github.com/kestrel3d/kestrel/internal/entity"
	"github.com/kestrel3d/kestrel/internal/frame"
	"github.com/kestrel3d/kestrel/internal/logging"
	"github.com/kestrel3d/kestrel/internal/node"
	"github.com/kestrel3d/kestrel/internal/scene"
	"github.com/kestrel3d/kestrel/pkg/uri"
	"github.com/kestrel3d/kestrel/pkg/xform"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("kestreld", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "log at debug level instead of info")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	level := logging.Info
	if *verbose {
		level = logging.Debug
	}
	log := logging.New(level)
	defer log.Sync()

	cfg := config.Default()
	log.Infow("kestreld: starting with device configuration",
		"vsync", cfg.Vsync, "anti_aliasing", cfg.AntiAliasing, "shadow_map_resolution", cfg.ShadowMapResolution)

	// A real embedder hands the engine a gpu.Device, a windowing-
	// supplied surface/swapchain, and a uri.DataSource backed by its own
	// asset directory or archive here. None of that exists without a
	// window, so this stub substitutes stand-ins that are enough to
	// exercise the Scene/Entity/Frame wiring on their own.
	providers := stubProviders{}
	s := scene.New(providers)

	box := s.Tree.Add(node.CreateInfo{Name: "box", Parent: s.Root, Transform: xform.DefaultData()})
	e := s.Entities.Create(box.ID)
	e.AddComponent(&entity.StaticMeshRenderer{MeshURI: uri.URI("meshes/box.json")})

	const dt = float32(1.0 / 60.0)
	s.Tick(dt)

	var sceneDraws, uiDraws frame.DrawList
	s.Render(&sceneDraws, &uiDraws)

	log.Infow("kestreld: ticked scene",
		"dt", dt,
		"entities", s.Entities.Len(),
		"scene_opaque", len(sceneDraws.Opaque),
		"scene_transparent", len(sceneDraws.Transparent),
		"ui_opaque", len(uiDraws.Opaque))
	fmt.Printf("kestreld: one headless tick complete, %d entities, %d scene draws\n",
		s.Entities.Len(), len(sceneDraws.Opaque)+len(sceneDraws.Transparent))
	return 0
}

// stubProviders satisfies entity.Providers with empty assets, standing
// in for the asset.RuntimeProviders a real embedder wires over its own
// uri.DataSource and device-backed upload caches.
type stubProviders struct{}

func (stubProviders) UploadStaticMesh(u uri.URI) (asset.StaticMesh, error) {
	return asset.StaticMesh{}, nil
}
func (stubProviders) UploadSkinnedMesh(u uri.URI) (asset.SkinnedMesh, error) {
	return asset.SkinnedMesh{}, nil
}
func (stubProviders) Material(u uri.URI) (asset.Material, error) {
	return asset.Material{}, nil
}
