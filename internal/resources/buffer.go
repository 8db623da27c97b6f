// Package resources allocates the GPU buffers behind a frame: device-local
// geometry filled through staging copies, host-visible uniform blocks, their
// descriptor sets and the pre-recorded command buffers that draw with them.
package resources

import (
	"bytes"
	"encoding/binary"
	"log"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/docker/go-units"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/device"
	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

const hostMemory = core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent

// Buffer is a buffer bound to its own dedicated allocation.
type Buffer struct {
	Buffer core1_0.Buffer
	Memory core1_0.DeviceMemory
	Size   int
}

func (b *Buffer) Destroy() {
	if b == nil {
		return
	}
	if b.Buffer != nil {
		b.Buffer.Destroy(nil)
		b.Buffer = nil
	}
	if b.Memory != nil {
		b.Memory.Free(nil)
		b.Memory = nil
	}
}

// Allocator creates buffers on one device and runs one-shot transfer
// commands on its graphics queue.
type Allocator struct {
	device        core1_0.Device
	queue         core1_0.Queue
	pool          core1_0.CommandPool
	memProperties *core1_0.PhysicalDeviceMemoryProperties
}

func NewAllocator(ctx *device.Context, pool core1_0.CommandPool) *Allocator {
	return &Allocator{
		device:        ctx.Device,
		queue:         ctx.GraphicsQueue,
		pool:          pool,
		memProperties: ctx.PhysicalDevice.MemoryProperties(),
	}
}

func (a *Allocator) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*Buffer, error) {
	buffer, _, err := a.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, vkerr.Exhausted(err, "create %s buffer", units.BytesSize(float64(size)))
	}
	result := &Buffer{Buffer: buffer, Size: size}

	memRequirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := FindMemoryType(a.memProperties, memRequirements.MemoryTypeBits, properties)
	if err != nil {
		result.Destroy()
		return nil, err
	}

	result.Memory, _, err = a.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		result.Destroy()
		return nil, vkerr.Exhausted(err, "allocate %s", units.BytesSize(float64(memRequirements.Size)))
	}

	_, err = buffer.BindBufferMemory(result.Memory, 0)
	if err != nil {
		result.Destroy()
		return nil, vkerr.Fatal(err, "bind buffer memory")
	}

	return result, nil
}

func (a *Allocator) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := a.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        a.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, vkerr.Exhausted(err, "allocate transfer command buffer")
	}

	buffer := buffers[0]
	_, err = buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		a.device.FreeCommandBuffers(buffers)
		return nil, vkerr.Fatal(err, "begin transfer command buffer")
	}
	return buffer, nil
}

// endSingleTimeCommands submits the buffer and blocks until the queue is idle.
func (a *Allocator) endSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	defer a.device.FreeCommandBuffers([]core1_0.CommandBuffer{buffer})

	_, err := buffer.End()
	if err != nil {
		return vkerr.Fatal(err, "end transfer command buffer")
	}

	_, err = a.queue.Submit(nil, []core1_0.SubmitInfo{
		{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	})
	if err != nil {
		return vkerr.Fatal(err, "submit transfer")
	}

	_, err = a.queue.WaitIdle()
	return vkerr.Fatal(err, "wait for transfer")
}

func (a *Allocator) CopyBuffer(src, dst *Buffer, size int) error {
	buffer, err := a.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = buffer.CmdCopyBuffer(src.Buffer, dst.Buffer, []core1_0.BufferCopy{
		{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	})
	if err != nil {
		a.device.FreeCommandBuffers([]core1_0.CommandBuffer{buffer})
		return vkerr.Fatal(err, "record buffer copy")
	}

	return a.endSingleTimeCommands(buffer)
}

// Upload copies data into a new device-local buffer through a temporary
// host-visible staging buffer. The staging buffer is released before Upload
// returns, whether or not the copy succeeded.
func (a *Allocator) Upload(data any, usage core1_0.BufferUsageFlags) (*Buffer, error) {
	encoded, err := Encode(data)
	if err != nil {
		return nil, err
	}
	bufferSize := len(encoded)

	staging, err := a.CreateBuffer(bufferSize, core1_0.BufferUsageTransferSrc, hostMemory)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	err = writeBytes(staging.Memory, 0, encoded)
	if err != nil {
		return nil, err
	}

	result, err := a.CreateBuffer(bufferSize, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	err = a.CopyBuffer(staging, result, bufferSize)
	if err != nil {
		result.Destroy()
		return nil, err
	}

	log.Printf("uploaded %s to device-local memory\n", units.BytesSize(float64(bufferSize)))
	return result, nil
}

// ReadBack copies the first size bytes of a buffer created with
// BufferUsageTransferSrc into host memory.
func (a *Allocator) ReadBack(src *Buffer, size int) ([]byte, error) {
	staging, err := a.CreateBuffer(size, core1_0.BufferUsageTransferDst, hostMemory)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	err = a.CopyBuffer(src, staging, size)
	if err != nil {
		return nil, err
	}

	memoryPtr, _, err := staging.Memory.Map(0, size, 0)
	if err != nil {
		return nil, vkerr.Fatal(err, "map readback buffer")
	}
	defer staging.Memory.Unmap()

	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(memoryPtr), size))
	return out, nil
}

// Encode lays data out the way the device reads it.
func Encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return nil, errors.Wrap(err, "encode buffer contents")
	}
	return buf.Bytes(), nil
}

func writeData(memory core1_0.DeviceMemory, offset int, data any) error {
	encoded, err := Encode(data)
	if err != nil {
		return err
	}
	return writeBytes(memory, offset, encoded)
}

func writeBytes(memory core1_0.DeviceMemory, offset int, data []byte) error {
	memoryPtr, _, err := memory.Map(offset, len(data), 0)
	if err != nil {
		return vkerr.Fatal(err, "map memory")
	}
	defer memory.Unmap()

	copy(unsafe.Slice((*byte)(memoryPtr), len(data)), data)
	return nil
}
