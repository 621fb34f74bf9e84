// Package target owns the swapchain and the three render targets a
// frame draws into: the shadow depth target, the off-screen 3D target,
// and the swapchain image the UI pass composites onto.
package target

import (
	"fmt"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/config"
	"github.com/kestrel3d/kestrel/internal/deferred"
	"github.com/kestrel3d/kestrel/pkg/winhost"
)

// presentMode maps a config.Vsync mode to the Vulkan present mode it
// requests, falling back to FIFO (always available) if the surface
// doesn't support the requested mode.
func presentMode(vsync config.Vsync, available []gpu.PresentModeKHR) gpu.PresentModeKHR {
	want := gpu.PRESENT_MODE_FIFO_KHR
	switch vsync {
	case config.VsyncOff:
		want = gpu.PRESENT_MODE_IMMEDIATE_KHR
	case config.VsyncAdaptive:
		want = gpu.PRESENT_MODE_FIFO_RELAXED_KHR
	case config.VsyncMailbox:
		want = gpu.PRESENT_MODE_MAILBOX_KHR
	}
	for _, m := range available {
		if m == want {
			return want
		}
	}
	return gpu.PRESENT_MODE_FIFO_KHR
}

// Swapchain wraps platform presentation: refresh recreates it against
// a new extent/vsync mode, acquire/present drive one frame's cycle,
// and both defer the previous swapchain's teardown so in-flight frames
// that still reference it aren't disturbed.
type Swapchain struct {
	device         gpu.Device
	physicalDevice gpu.PhysicalDevice
	surface        gpu.SurfaceKHR
	deferred       *deferred.Queue

	handle     gpu.SwapchainKHR
	format     gpu.Format
	colorSpace gpu.ColorSpaceKHR
	extent     gpu.Extent2D
	images     []gpu.Image
	views      []gpu.ImageView
}

// New constructs an unpopulated Swapchain against surface (supplied by
// the embedding application's windowing layer); call Refresh before
// use.
func New(device gpu.Device, physicalDevice gpu.PhysicalDevice, surface winhost.Surface, dq *deferred.Queue) *Swapchain {
	return &Swapchain{device: device, physicalDevice: physicalDevice, surface: surface.Handle(), deferred: dq}
}

// ColorSpace reports the swapchain's current color space, queried on
// the last Refresh; sRGB-nonlinear when the surface advertises it, the
// first reported color space otherwise.
func (s *Swapchain) ColorSpace() gpu.ColorSpaceKHR { return s.colorSpace }

// Format reports the swapchain's current image format.
func (s *Swapchain) Format() gpu.Format { return s.format }

// Extent reports the swapchain's current image extent.
func (s *Swapchain) Extent() gpu.Extent2D { return s.extent }

// Image returns the underlying gpu.Image for a swapchain image index,
// needed by the renderer to issue the layout-transition barriers that
// dynamic rendering doesn't do implicitly (attachment->present_src).
func (s *Swapchain) Image(index uint32) gpu.Image { return s.images[index] }

// Refresh (re)creates the swapchain at extent with the present mode
// vsync requests, reusing the old swapchain as OldSwapchain so the
// driver can hand resources back, then defers destruction of the old
// swapchain and its image views.
func (s *Swapchain) Refresh(extent gpu.Extent2D, vsync config.Vsync) error {
	support, err := s.physicalDevice.QuerySwapchainSupport(s.surface)
	if err != nil {
		return fmt.Errorf("target: query swapchain support: %w", err)
	}
	if len(support.Formats) == 0 {
		return fmt.Errorf("target: surface has no formats")
	}
	if len(support.PresentModes) == 0 {
		return fmt.Errorf("target: surface has no present modes")
	}

	surfaceFormat := gpu.ChooseSurfaceFormat(support.Formats)
	mode := presentMode(vsync, support.PresentModes)
	imageCount := gpu.ChooseImageCount(support.Capabilities)

	oldHandle := s.handle
	oldViews := s.views

	handle, err := s.device.CreateSwapchainKHR(&gpu.SwapchainCreateInfoKHR{
		Surface:          s.surface,
		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       gpu.IMAGE_USAGE_COLOR_ATTACHMENT_BIT,
		ImageSharingMode: gpu.SHARING_MODE_EXCLUSIVE,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   gpu.COMPOSITE_ALPHA_OPAQUE_BIT_KHR,
		PresentMode:      mode,
		Clipped:          true,
		OldSwapchain:     oldHandle,
	})
	if err != nil {
		return fmt.Errorf("target: create swapchain: %w", err)
	}

	images, err := s.device.GetSwapchainImagesKHR(handle)
	if err != nil {
		s.device.DestroySwapchainKHR(handle)
		return fmt.Errorf("target: get swapchain images: %w", err)
	}
	views, err := gpu.CreateSwapchainImageViews(s.device, images, surfaceFormat.Format)
	if err != nil {
		s.device.DestroySwapchainKHR(handle)
		return fmt.Errorf("target: create swapchain image views: %w", err)
	}

	s.handle = handle
	s.format = surfaceFormat.Format
	s.colorSpace = surfaceFormat.ColorSpace
	s.extent = extent
	s.images = images
	s.views = views

	if oldHandle != (gpu.SwapchainKHR{}) {
		device := s.device
		s.deferred.Push(func() {
			for _, v := range oldViews {
				device.DestroyImageView(v)
			}
			device.DestroySwapchainKHR(oldHandle)
		})
	}
	return nil
}

// AcquireResult is the outcome of Acquire: either a usable image, or a
// signal that the caller must Refresh before drawing this frame.
type AcquireResult struct {
	ImageIndex  uint32
	View        gpu.ImageView
	NeedsRefresh bool
}

// Acquire returns the next swapchain image signaled by semaphore. On
// OutOfDate it reports NeedsRefresh without returning an error, since
// that's an expected, recoverable condition (window resize, display
// mode change); any other failure is returned as an error.
func (s *Swapchain) Acquire(semaphore gpu.Semaphore) (AcquireResult, error) {
	index, err := s.device.AcquireNextImageKHR(s.handle, ^uint64(0), semaphore, gpu.Fence{})
	if err != nil {
		if result, ok := err.(gpu.Result); ok && result == gpu.OUT_OF_DATE {
			return AcquireResult{NeedsRefresh: true}, nil
		}
		return AcquireResult{}, err
	}
	return AcquireResult{ImageIndex: index, View: s.views[index]}, nil
}

// Present queues the image at imageIndex for presentation, waiting on
// waitSemaphore. Suboptimal is reported via NeedsRefresh (the image
// still presented; refresh before the next frame), OutOfDate the same
// way Acquire reports it.
func (s *Swapchain) Present(queue gpu.Queue, waitSemaphore gpu.Semaphore, imageIndex uint32) (needsRefresh bool, err error) {
	err = queue.PresentKHR(&gpu.PresentInfoKHR{
		WaitSemaphores: []gpu.Semaphore{waitSemaphore},
		Swapchains:     []gpu.SwapchainKHR{s.handle},
		ImageIndices:   []uint32{imageIndex},
	})
	if err == nil {
		return false, nil
	}
	if result, ok := err.(gpu.Result); ok && (result == gpu.OUT_OF_DATE || result == gpu.SUBOPTIMAL) {
		return true, nil
	}
	return false, err
}

// Destroy releases the swapchain and its image views immediately
// (bypassing the deferred queue — only safe once all GPU work against
// it has completed, i.e. at device teardown).
func (s *Swapchain) Destroy() {
	for _, v := range s.views {
		s.device.DestroyImageView(v)
	}
	if s.handle != (gpu.SwapchainKHR{}) {
		s.device.DestroySwapchainKHR(s.handle)
	}
	s.views = nil
	s.images = nil
}
