package resources

import (
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/geometry"
	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

// UniformBuffers holds one host-visible uniform block per swapchain image, so
// the block for an image can be rewritten while other images are in flight.
type UniformBuffers struct {
	Buffers []*Buffer
}

func (a *Allocator) CreateUniformBuffers(count int) (*UniformBuffers, error) {
	uniforms := &UniformBuffers{}
	for i := 0; i < count; i++ {
		buffer, err := a.CreateBuffer(geometry.UniformsSize, core1_0.BufferUsageUniformBuffer, hostMemory)
		if err != nil {
			uniforms.Destroy()
			return nil, err
		}

		uniforms.Buffers = append(uniforms.Buffers, buffer)
	}

	return uniforms, nil
}

func (u *UniformBuffers) Write(image int, ubo *geometry.Uniforms) error {
	if image < 0 || image >= len(u.Buffers) {
		return vkerr.Fatalf("no uniform buffer for image %d of %d", image, len(u.Buffers))
	}
	return writeData(u.Buffers[image].Memory, 0, ubo)
}

func (u *UniformBuffers) Destroy() {
	if u == nil {
		return
	}
	for _, buffer := range u.Buffers {
		buffer.Destroy()
	}
	u.Buffers = nil
}

// Descriptors is a pool holding one uniform-buffer descriptor set per image.
type Descriptors struct {
	Pool core1_0.DescriptorPool
	Sets []core1_0.DescriptorSet
}

func CreateDescriptors(device core1_0.Device, layout core1_0.DescriptorSetLayout, uniforms *UniformBuffers) (*Descriptors, error) {
	count := len(uniforms.Buffers)

	pool, _, err := device.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets: count,
		PoolSizes: []core1_0.DescriptorPoolSize{
			{
				Type:            core1_0.DescriptorTypeUniformBuffer,
				DescriptorCount: count,
			},
		},
	})
	if err != nil {
		return nil, vkerr.Exhausted(err, "create descriptor pool")
	}
	descriptors := &Descriptors{Pool: pool}

	var allocLayouts []core1_0.DescriptorSetLayout
	for i := 0; i < count; i++ {
		allocLayouts = append(allocLayouts, layout)
	}

	descriptors.Sets, _, err = device.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: pool,
		SetLayouts:     allocLayouts,
	})
	if err != nil {
		descriptors.Destroy()
		return nil, vkerr.Exhausted(err, "allocate descriptor sets")
	}

	for i := 0; i < count; i++ {
		err = device.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
			{
				DstSet:          descriptors.Sets[i],
				DstBinding:      0,
				DstArrayElement: 0,

				DescriptorType: core1_0.DescriptorTypeUniformBuffer,

				BufferInfo: []core1_0.DescriptorBufferInfo{
					{
						Buffer: uniforms.Buffers[i].Buffer,
						Offset: 0,
						Range:  geometry.UniformsSize,
					},
				},
			},
		}, nil)
		if err != nil {
			descriptors.Destroy()
			return nil, vkerr.Fatal(err, "update descriptor set %d", i)
		}
	}

	return descriptors, nil
}

// Destroy releases the pool, which frees every set allocated from it.
func (d *Descriptors) Destroy() {
	if d == nil {
		return
	}
	if d.Pool != nil {
		d.Pool.Destroy(nil)
		d.Pool = nil
	}
	d.Sets = nil
}
