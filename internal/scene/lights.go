package scene

import (
	"github.com/kestrel3d/kestrel/internal/frame"
)

// Lights is the scene-owned light set (§4.10): "a Lights struct"
// alongside Camera and NodeTree. Only directional lights are modeled,
// matching frame.DirLight/frame.MaxDirLights.
type Lights struct {
	DirLights []frame.DirLight
}
