// Package config defines the engine's device-creation and per-frame
// configuration, loaded from JSON the same way scene/mesh assets are
// (encoding/json; no third-party JSON library appears anywhere in the
// retrieved corpus).
package config

import (
	"encoding/json"
	"fmt"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/pkg/color"
)

// Vsync selects the swapchain's present mode.
type Vsync int

const (
	VsyncOn Vsync = iota
	VsyncOff
	VsyncAdaptive
	VsyncMailbox
)

func (v Vsync) String() string {
	switch v {
	case VsyncOn:
		return "on"
	case VsyncOff:
		return "off"
	case VsyncAdaptive:
		return "adaptive"
	case VsyncMailbox:
		return "mailbox"
	default:
		return "unknown"
	}
}

func (v Vsync) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Vsync) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "on":
		*v = VsyncOn
	case "off":
		*v = VsyncOff
	case "adaptive":
		*v = VsyncAdaptive
	case "mailbox":
		*v = VsyncMailbox
	default:
		return fmt.Errorf("config: unknown vsync mode %q", s)
	}
	return nil
}

// RenderMode selects the rasterizer state a material/draw requests.
type RenderMode struct {
	PolygonMode gpu.PolygonMode
	LineWidth   float32
	DepthTest   bool
}

// ShadowFrustum bounds the shadow pass's orthographic light-space
// projection: near/far span along the light direction, HalfExtent the
// square cross-section centered on the camera position (§4.6).
type ShadowFrustum struct {
	HalfExtent float32 `json:"half_extent"`
	Near       float32 `json:"near"`
	Far        float32 `json:"far"`
}

// Config is the device-creation configuration (§6): fields set once at
// startup, plus the per-frame overridable fields the renderer reads
// every tick.
type Config struct {
	// Device-creation, fixed for the device's lifetime.
	Validation          bool              `json:"validation"`
	Vsync               Vsync             `json:"vsync"`
	SwapchainColorSpace gpu.ColorSpaceKHR `json:"swapchain_color_space"`
	AntiAliasing        gpu.SampleCountFlags `json:"anti_aliasing"`
	ShadowMapResolution [2]uint32         `json:"shadow_map_resolution"`
	ShadowFrustum       ShadowFrustum     `json:"shadow_frustum"`

	// Per-frame overridable.
	renderScale       float32
	ClearColour       color.Rgba `json:"clear_colour"`
	DefaultRenderMode RenderMode `json:"default_render_mode"`
}

const (
	minRenderScale = 0.1
	maxRenderScale = 2.0
)

// Default returns a Config with the documented defaults: vsync on,
// sRGB-nonlinear colour space, 4x MSAA, a 2048x2048 shadow map, unit
// render scale, and a dark-grey clear colour.
func Default() Config {
	c := Config{
		Validation:          false,
		Vsync:               VsyncOn,
		SwapchainColorSpace: gpu.COLOR_SPACE_SRGB_NONLINEAR_KHR,
		AntiAliasing:        gpu.SAMPLE_COUNT_4_BIT,
		ShadowMapResolution: [2]uint32{2048, 2048},
		ShadowFrustum:       ShadowFrustum{HalfExtent: 25, Near: 0.1, Far: 100},
		ClearColour:         color.Rgba{R: 32, G: 32, B: 32, A: 255},
		DefaultRenderMode:   RenderMode{PolygonMode: gpu.POLYGON_MODE_FILL, DepthTest: true},
	}
	c.renderScale = 1.0
	return c
}

// RenderScale returns the current per-frame render scale.
func (c *Config) RenderScale() float32 { return c.renderScale }

// SetRenderScale clamps s to [0.1, 2.0] before storing it, per §6.
func (c *Config) SetRenderScale(s float32) {
	if s < minRenderScale {
		s = minRenderScale
	}
	if s > maxRenderScale {
		s = maxRenderScale
	}
	c.renderScale = s
}

// configJSON mirrors Config's exported shape plus the unexported
// render scale, for round-tripping through encoding/json.
type configJSON struct {
	Validation          bool                 `json:"validation"`
	Vsync               Vsync                `json:"vsync"`
	SwapchainColorSpace gpu.ColorSpaceKHR    `json:"swapchain_color_space"`
	AntiAliasing        gpu.SampleCountFlags `json:"anti_aliasing"`
	ShadowMapResolution [2]uint32            `json:"shadow_map_resolution"`
	ShadowFrustum       ShadowFrustum        `json:"shadow_frustum"`
	RenderScale         float32              `json:"render_scale"`
	ClearColour         color.Rgba           `json:"clear_colour"`
	DefaultRenderMode   RenderMode           `json:"default_render_mode"`
}

// Load decodes a Config from JSON, clamping RenderScale on the way in.
func Load(data []byte) (Config, error) {
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	c := Config{
		Validation:          raw.Validation,
		Vsync:               raw.Vsync,
		SwapchainColorSpace: raw.SwapchainColorSpace,
		AntiAliasing:        raw.AntiAliasing,
		ShadowMapResolution: raw.ShadowMapResolution,
		ShadowFrustum:       raw.ShadowFrustum,
		ClearColour:         raw.ClearColour,
		DefaultRenderMode:   raw.DefaultRenderMode,
	}
	c.SetRenderScale(raw.RenderScale)
	return c, nil
}

// Marshal encodes c back to JSON, including the current render scale.
func (c Config) Marshal() ([]byte, error) {
	raw := configJSON{
		Validation:          c.Validation,
		Vsync:               c.Vsync,
		SwapchainColorSpace: c.SwapchainColorSpace,
		AntiAliasing:        c.AntiAliasing,
		ShadowMapResolution: c.ShadowMapResolution,
		ShadowFrustum:       c.ShadowFrustum,
		RenderScale:         c.renderScale,
		ClearColour:         c.ClearColour,
		DefaultRenderMode:   c.DefaultRenderMode,
	}
	return json.Marshal(raw)
}
