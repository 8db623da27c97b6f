package device

import (
	"log"

	"github.com/docker/go-units"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/vkngwrapper/frame-presenter/internal/vkerr"
)

// Context is the selected GPU: the physical device, the logical device opened
// on it and the queues used for drawing and presenting. The two queue
// families may be the same.
type Context struct {
	PhysicalDevice core1_0.PhysicalDevice
	Device         core1_0.Device
	Properties     *core1_0.PhysicalDeviceProperties

	GraphicsFamily int
	PresentFamily  int

	GraphicsQueue core1_0.Queue
	PresentQueue  core1_0.Queue
}

// SharedFamily reports whether one queue family serves both graphics and present.
func (c *Context) SharedFamily() bool {
	return c.GraphicsFamily == c.PresentFamily
}

func (c *Context) WaitIdle() error {
	_, err := c.Device.WaitIdle()
	return vkerr.Fatal(err, "wait for device idle")
}

func (c *Context) Destroy() {
	if c.Device != nil {
		c.Device.Destroy(nil)
		c.Device = nil
	}
}

type physicalCandidate struct {
	device  core1_0.PhysicalDevice
	surface khr_surface.Surface
	name    string
}

func (c *physicalCandidate) Name() string {
	return c.name
}

func (c *physicalCandidate) QueueFamilies() []QueueFamily {
	var families []QueueFamily
	for _, queueFamily := range c.device.QueueFamilyProperties() {
		families = append(families, QueueFamily{Graphics: (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0})
	}
	return families
}

func (c *physicalCandidate) PresentSupport(family int) (bool, error) {
	supported, _, err := c.surface.PhysicalDeviceSurfaceSupport(c.device, family)
	return supported, err
}

func (c *physicalCandidate) Extensions() (map[string]bool, error) {
	extensions, _, err := c.device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(extensions))
	for name := range extensions {
		names[name] = true
	}
	return names, nil
}

func (c *physicalCandidate) SurfaceSupport() (SurfaceSupport, error) {
	return QuerySurfaceSupport(c.device, c.surface)
}

func QuerySurfaceSupport(device core1_0.PhysicalDevice, surface khr_surface.Surface) (SurfaceSupport, error) {
	var details SurfaceSupport
	var err error

	details.Capabilities, _, err = surface.PhysicalDeviceSurfaceCapabilities(device)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = surface.PhysicalDeviceSurfaceFormats(device)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = surface.PhysicalDeviceSurfacePresentModes(device)
	return details, err
}

// Select enumerates the instance's devices, picks the first one able to draw
// and present to surface, and opens a logical device with one queue per
// distinct family. Every failure is unrecoverable.
func Select(instance core1_0.Instance, surface khr_surface.Surface) (*Context, error) {
	physicalDevices, _, err := instance.EnumeratePhysicalDevices()
	if err != nil {
		return nil, vkerr.Fatal(err, "enumerate physical devices")
	}

	candidates := make([]Candidate, 0, len(physicalDevices))
	for _, physicalDevice := range physicalDevices {
		name := "unknown"
		if properties, err := physicalDevice.Properties(); err == nil {
			name = properties.DriverName
		}
		candidates = append(candidates, &physicalCandidate{device: physicalDevice, surface: surface, name: name})
	}

	chosen, indices, err := Pick(candidates)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		PhysicalDevice: physicalDevices[chosen],
		GraphicsFamily: *indices.GraphicsFamily,
		PresentFamily:  *indices.PresentFamily,
	}

	ctx.Properties, err = ctx.PhysicalDevice.Properties()
	if err != nil {
		return nil, vkerr.Fatal(err, "read properties of %s", candidates[chosen].Name())
	}

	err = ctx.createLogicalDevice()
	if err != nil {
		return nil, err
	}

	log.Printf("device: selected %s (graphics family %d, present family %d)", ctx.Properties.DriverName, ctx.GraphicsFamily, ctx.PresentFamily)
	memProperties := ctx.PhysicalDevice.MemoryProperties()
	for heapIdx, heap := range memProperties.MemoryHeaps {
		log.Printf("device: memory heap %d: %s", heapIdx, units.BytesSize(float64(heap.Size)))
	}

	return ctx, nil
}

func (c *Context) createLogicalDevice() error {
	uniqueQueueFamilies := []int{c.GraphicsFamily}
	if !c.SharedFamily() {
		uniqueQueueFamilies = append(uniqueQueueFamilies, c.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, RequiredExtensions...)

	// Vulkan portability implementations (MoltenVK) require the subset extension to be enabled
	extensions, _, err := c.PhysicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return vkerr.Fatal(err, "enumerate device extensions")
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	c.Device, _, err = c.PhysicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return vkerr.Fatal(err, "create logical device")
	}

	c.GraphicsQueue = c.Device.GetQueue(c.GraphicsFamily, 0)
	c.PresentQueue = c.Device.GetQueue(c.PresentFamily, 0)
	return nil
}
