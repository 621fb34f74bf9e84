// Package alloc wraps the GPU memory allocator: buffer/image creation
// plus backing memory, and the upload/copy/mip-generation helpers the
// rest of the engine builds on. Grounded on the teacher's
// CreateBufferWithMemory/CreateImageWithMemory helpers in gpu/, widened
// to cover host-visible buffers, arbitrary mip counts, and MSAA images
// that those two helpers don't parameterize.
package alloc

import (
	"fmt"
	"math/bits"

	"github.com/kestrel3d/kestrel/gpu"
	"github.com/kestrel3d/kestrel/internal/deferred"
	"github.com/kestrel3d/kestrel/pkg/kerr"
)

// Allocator issues GPU buffers and images against a single device, and
// pushes their handles through the deferred queue when destroyed.
type Allocator struct {
	device         gpu.Device
	physicalDevice gpu.PhysicalDevice
	deferred       *deferred.Queue
}

func New(device gpu.Device, physicalDevice gpu.PhysicalDevice, dq *deferred.Queue) *Allocator {
	return &Allocator{device: device, physicalDevice: physicalDevice, deferred: dq}
}

// Buffer is a GPU buffer plus its backing memory, destroyed together.
type Buffer struct {
	Handle gpu.Buffer
	Memory gpu.DeviceMemory
	Size   uint64
}

// MakeBuffer creates a buffer of size bytes; hostVisible selects a
// mappable memory type (for staging/scratch buffers) over device-local.
func (a *Allocator) MakeBuffer(usage gpu.BufferUsageFlags, size uint64, hostVisible bool) (Buffer, error) {
	props := gpu.MEMORY_PROPERTY_DEVICE_LOCAL_BIT
	if hostVisible {
		props = gpu.MEMORY_PROPERTY_HOST_VISIBLE_BIT | gpu.MEMORY_PROPERTY_HOST_COHERENT_BIT
	}
	buf, mem, err := a.device.CreateBufferWithMemory(size, usage, props, a.physicalDevice)
	if err != nil {
		return Buffer{}, kerr.New(kerr.AllocFailed, "alloc.MakeBuffer", "", err)
	}
	return Buffer{Handle: buf, Memory: mem, Size: size}, nil
}

// MakeBufferWithData creates a host-visible buffer of len(data) bytes
// and immediately uploads data into it via Device.UploadToBuffer.
// Vertex/index data for imported meshes is small and infrequently
// rewritten, so a staged device-local copy isn't worth the extra
// command-buffer bookkeeping here.
func (a *Allocator) MakeBufferWithData(usage gpu.BufferUsageFlags, data []byte) (Buffer, error) {
	buf, err := a.MakeBuffer(usage, uint64(len(data)), true)
	if err != nil {
		return Buffer{}, err
	}
	if len(data) == 0 {
		return buf, nil
	}
	if err := a.device.UploadToBuffer(buf.Memory, data); err != nil {
		a.DestroyBuffer(buf)
		return Buffer{}, kerr.New(kerr.AllocFailed, "alloc.MakeBufferWithData", "", err)
	}
	return buf, nil
}

// DestroyBuffer pushes the buffer's GPU handles to the deferred queue
// rather than destroying them immediately.
func (a *Allocator) DestroyBuffer(b Buffer) {
	device := a.device
	a.deferred.Push(func() {
		device.DestroyBuffer(b.Handle)
		device.FreeMemory(b.Memory)
	})
}

// Image is a GPU image, its view, and backing memory.
type Image struct {
	Handle    gpu.Image
	View      gpu.ImageView
	Memory    gpu.DeviceMemory
	Format    gpu.Format
	Extent    gpu.Extent3D
	MipLevels uint32
}

// MipLevelsFor computes floor(log2(max(w,h)))+1, the mip chain depth
// requested by a "generate mips" request.
func MipLevelsFor(width, height uint32) uint32 {
	m := width
	if height > m {
		m = height
	}
	if m == 0 {
		return 1
	}
	return uint32(bits.Len32(m))
}

// MakeImage creates an image and a matching view. When mipLevels > 1
// but the format cannot be linearly blitted, it is silently downgraded
// to 1 (callers that need to know may call SupportsLinearBlit first).
func (a *Allocator) MakeImage(format gpu.Format, usage gpu.ImageUsageFlags, aspect gpu.ImageAspectFlags, mipLevels uint32, samples gpu.SampleCountFlags, extent gpu.Extent3D, viewType gpu.ImageViewType) (Image, error) {
	if mipLevels > 1 && !a.physicalDevice.SupportsLinearBlit(format) {
		mipLevels = 1
	}
	if mipLevels == 0 {
		mipLevels = 1
	}

	img, err := a.device.CreateImage(&gpu.ImageCreateInfo{
		ImageType:     gpu.IMAGE_TYPE_2D,
		Format:        format,
		Extent:        extent,
		MipLevels:     mipLevels,
		ArrayLayers:   1,
		Samples:       samples,
		Tiling:        gpu.IMAGE_TILING_OPTIMAL,
		Usage:         usage,
		SharingMode:   gpu.SHARING_MODE_EXCLUSIVE,
		InitialLayout: gpu.IMAGE_LAYOUT_UNDEFINED,
	})
	if err != nil {
		return Image{}, kerr.New(kerr.AllocFailed, "alloc.MakeImage", "", err)
	}

	memReqs := a.device.GetImageMemoryRequirements(img)
	memProps := a.physicalDevice.GetMemoryProperties()
	typeIdx, found := gpu.FindMemoryType(memProps, memReqs.MemoryTypeBits, gpu.MEMORY_PROPERTY_DEVICE_LOCAL_BIT)
	if !found {
		a.device.DestroyImage(img)
		return Image{}, kerr.New(kerr.AllocFailed, "alloc.MakeImage", "", fmt.Errorf("no matching device-local memory type"))
	}
	mem, err := a.device.AllocateMemory(&gpu.MemoryAllocateInfo{AllocationSize: memReqs.Size, MemoryTypeIndex: typeIdx})
	if err != nil {
		a.device.DestroyImage(img)
		return Image{}, kerr.New(kerr.AllocFailed, "alloc.MakeImage", "", err)
	}
	if err := a.device.BindImageMemory(img, mem, 0); err != nil {
		a.device.FreeMemory(mem)
		a.device.DestroyImage(img)
		return Image{}, kerr.New(kerr.AllocFailed, "alloc.MakeImage", "", err)
	}

	view, err := a.device.CreateImageView(&gpu.ImageViewCreateInfo{
		Image:    img,
		ViewType: viewType,
		Format:   format,
		SubresourceRange: gpu.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		a.device.FreeMemory(mem)
		a.device.DestroyImage(img)
		return Image{}, kerr.New(kerr.AllocFailed, "alloc.MakeImage", "", err)
	}

	return Image{Handle: img, View: view, Memory: mem, Format: format, Extent: extent, MipLevels: mipLevels}, nil
}

// DestroyImage pushes the image's GPU handles to the deferred queue.
func (a *Allocator) DestroyImage(img Image) {
	device := a.device
	a.deferred.Push(func() {
		device.DestroyImageView(img.View)
		device.DestroyImage(img.Handle)
		device.FreeMemory(img.Memory)
	})
}

// ImageViewWrite is one concatenated source region for CopyToImage.
type ImageViewWrite struct {
	Data   []byte
	Offset gpu.Offset3D
	Extent gpu.Extent3D
	Mip    uint32
}

// CopyToImage allocates a staging buffer, memcpys the concatenated
// image view bytes into it, issues a buffer->image copy per view, then
// transitions the image to shader-read-only and generates the mip
// chain via successive blits when MipLevels > 1.
func (a *Allocator) CopyToImage(cmd gpu.CommandBuffer, dst Image, views []ImageViewWrite) error {
	total := 0
	for _, v := range views {
		total += len(v.Data)
	}
	staging, err := a.MakeBuffer(gpu.BUFFER_USAGE_TRANSFER_SRC_BIT, uint64(total), true)
	if err != nil {
		return err
	}

	buf := make([]byte, 0, total)
	regions := make([]gpu.BufferImageCopy, 0, len(views))
	offset := uint64(0)
	for _, v := range views {
		buf = append(buf, v.Data...)
		regions = append(regions, gpu.BufferImageCopy{
			BufferOffset: offset,
			ImageSubresource: gpu.ImageSubresourceLayers{
				AspectMask:     gpu.IMAGE_ASPECT_COLOR_BIT,
				MipLevel:       v.Mip,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: v.Offset,
			ImageExtent: v.Extent,
		})
		offset += uint64(len(v.Data))
	}
	if err := a.device.UploadToBuffer(staging.Memory, buf); err != nil {
		a.DestroyBuffer(staging)
		return kerr.New(kerr.AllocFailed, "alloc.CopyToImage", "", err)
	}

	transitionLayout(cmd, dst.Handle, gpu.IMAGE_LAYOUT_UNDEFINED, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, dst.MipLevels)
	cmd.CopyBufferToImage(staging.Handle, dst.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, regions)

	if dst.MipLevels > 1 {
		generateMips(cmd, dst)
	} else {
		transitionLayout(cmd, dst.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, dst.MipLevels)
	}

	a.DestroyBuffer(staging)
	return nil
}

// WriteImages updates partial regions of an already-uploaded image,
// without regenerating its mip chain.
func (a *Allocator) WriteImages(cmd gpu.CommandBuffer, dst Image, writes []ImageViewWrite) error {
	total := 0
	for _, w := range writes {
		total += len(w.Data)
	}
	staging, err := a.MakeBuffer(gpu.BUFFER_USAGE_TRANSFER_SRC_BIT, uint64(total), true)
	if err != nil {
		return err
	}
	buf := make([]byte, 0, total)
	regions := make([]gpu.BufferImageCopy, 0, len(writes))
	offset := uint64(0)
	for _, w := range writes {
		buf = append(buf, w.Data...)
		regions = append(regions, gpu.BufferImageCopy{
			BufferOffset: offset,
			ImageSubresource: gpu.ImageSubresourceLayers{
				AspectMask:     gpu.IMAGE_ASPECT_COLOR_BIT,
				MipLevel:       w.Mip,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: w.Offset,
			ImageExtent: w.Extent,
		})
		offset += uint64(len(w.Data))
	}
	if err := a.device.UploadToBuffer(staging.Memory, buf); err != nil {
		a.DestroyBuffer(staging)
		return kerr.New(kerr.AllocFailed, "alloc.WriteImages", "", err)
	}

	transitionLayout(cmd, dst.Handle, gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, dst.MipLevels)
	cmd.CopyBufferToImage(staging.Handle, dst.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, regions)
	transitionLayout(cmd, dst.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, dst.MipLevels)

	a.DestroyBuffer(staging)
	return nil
}

// CopyImage copies src to dst with layout transitions on both ends.
func (a *Allocator) CopyImage(cmd gpu.CommandBuffer, src, dst Image, extent gpu.Extent3D) {
	transitionLayout(cmd, src.Handle, gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, gpu.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL, src.MipLevels)
	transitionLayout(cmd, dst.Handle, gpu.IMAGE_LAYOUT_UNDEFINED, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, dst.MipLevels)
	cmd.CmdCopyImage(src.Handle, gpu.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL, dst.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, extent, gpu.IMAGE_ASPECT_COLOR_BIT)
	transitionLayout(cmd, src.Handle, gpu.IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL, gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, src.MipLevels)
	transitionLayout(cmd, dst.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, dst.MipLevels)
}

func transitionLayout(cmd gpu.CommandBuffer, img gpu.Image, oldLayout, newLayout gpu.ImageLayout, levelCount uint32) {
	cmd.PipelineBarrier(
		gpu.PIPELINE_STAGE_TOP_OF_PIPE_BIT, gpu.PIPELINE_STAGE_TRANSFER_BIT,
		0,
		[]gpu.ImageMemoryBarrier{{
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: gpu.QUEUE_FAMILY_IGNORED,
			DstQueueFamilyIndex: gpu.QUEUE_FAMILY_IGNORED,
			Image:               img,
			SubresourceRange: gpu.ImageSubresourceRange{
				AspectMask:     gpu.IMAGE_ASPECT_COLOR_BIT,
				BaseMipLevel:   0,
				LevelCount:     levelCount,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}},
	)
}

// generateMips blits level i-1 into level i successively, leaving
// every level in SHADER_READ_ONLY_OPTIMAL.
func generateMips(cmd gpu.CommandBuffer, img Image) {
	w, h := int32(img.Extent.Width), int32(img.Extent.Height)
	for level := uint32(1); level < img.MipLevels; level++ {
		srcW, srcH := w, h
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
		cmd.CmdBlitImage(img.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, img.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL,
			gpu.ImageBlit{
				SrcSubresource: gpu.ImageSubresourceLayers{AspectMask: gpu.IMAGE_ASPECT_COLOR_BIT, MipLevel: level - 1, LayerCount: 1},
				SrcOffsets:     [2]gpu.Offset3D{{}, {X: srcW, Y: srcH, Z: 1}},
				DstSubresource: gpu.ImageSubresourceLayers{AspectMask: gpu.IMAGE_ASPECT_COLOR_BIT, MipLevel: level, LayerCount: 1},
				DstOffsets:     [2]gpu.Offset3D{{}, {X: w, Y: h, Z: 1}},
			},
			gpu.FILTER_LINEAR,
		)
	}
	transitionLayout(cmd, img.Handle, gpu.IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL, gpu.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL, img.MipLevels)
}
