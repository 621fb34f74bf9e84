// Package winhost names the windowing/input layer's boundary with the
// engine (§6): a platform surface, a framebuffer extent source, and
// the immediate-mode GUI integration's one render callback per frame.
// No implementation lives here — the windowing/input layer and the
// GUI integration are external collaborators out of scope for this
// module (§1); the renderer and render targets only depend on these
// interfaces, never on a concrete window toolkit.
package winhost

import "github.com/kestrel3d/kestrel/gpu"

// Surface hands the engine the platform window's Vulkan presentation
// surface, created by whatever windowing layer owns the window handle.
type Surface interface {
	Handle() gpu.SurfaceKHR
}

// Window reports the window's current framebuffer extent, in pixels,
// so the renderer can size the swapchain and offscreen targets to
// match (resize, DPI change, minimize/restore).
type Window interface {
	FramebufferExtent() (width, height uint32)
}

// GUI is the immediate-mode GUI integration's per-frame render
// callback, recorded last inside the UI pass against the already-bound
// swapchain framebuffer (frame.Frame.GUI).
type GUI func(cb gpu.CommandBuffer)
