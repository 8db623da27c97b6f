package resources

import (
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

// FindMemoryType returns the first memory type permitted by typeFilter whose
// property flags include all of properties.
func FindMemoryType(memProperties *core1_0.PhysicalDeviceMemoryProperties, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, vkerr.Exhaustedf("no memory type in filter 0x%x has properties %v", typeFilter, properties)
}
