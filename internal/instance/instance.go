// Package instance bootstraps the Vulkan loader and instance the rest of the
// program runs on, with the window system's extensions and, optionally, the
// Khronos validation layer.
package instance

import (
	"log"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

// VK_KHR_portability_enumeration has no binding in the extensions module, so
// it is enabled by name. Loaders that expose it (MoltenVK) only enumerate
// portability devices when the instance sets the matching create flag.
const (
	portabilityEnumerationExtension = "VK_KHR_portability_enumeration"

	instanceCreateEnumeratePortability core1_0.InstanceCreateFlags = 0x00000001
)

type Options struct {
	ApplicationName string
	// Extensions required by the window system.
	Extensions       []string
	EnableValidation bool
}

type Instance struct {
	Loader   core.Loader
	Instance core1_0.Instance

	debugMessenger ext_debug_utils.DebugUtilsMessenger
}

// Create builds an instance through a loader obtained from procAddr.
func Create(procAddr unsafe.Pointer, options Options) (*Instance, error) {
	loader, err := core.CreateLoaderFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.Wrap(err, "create loader")
	}

	return FromLoader(loader, options)
}

// FromLoader builds an instance through an existing loader.
func FromLoader(loader core.Loader, options Options) (*Instance, error) {
	inst := &Instance{Loader: loader}

	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    options.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := loader.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range options.Extensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return nil, errors.Newf("create instance: missing window system extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if options.EnableValidation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	_, enumerationSupported := extensions[portabilityEnumerationExtension]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, portabilityEnumerationExtension)
		instanceOptions.Flags |= instanceCreateEnumeratePortability
	}

	if options.EnableValidation {
		layers, _, err := loader.AvailableLayers()
		if err != nil {
			return nil, errors.Wrap(err, "enumerate instance layers")
		}

		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return nil, errors.Newf("create instance: validation layer %s not available- install LunarG Vulkan SDK", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		// Covers messages emitted during instance creation itself
		instanceOptions.Next = debugMessengerOptions()
	}

	inst.Instance, _, err = loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}

	if options.EnableValidation {
		debugLoader := ext_debug_utils.CreateExtensionFromInstance(inst.Instance)
		inst.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(inst.Instance, nil, debugMessengerOptions())
		if err != nil {
			inst.Instance.Destroy(nil)
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}

	return inst, nil
}

// Destroy must only run after every object created from the instance is gone.
func (i *Instance) Destroy() {
	if i.debugMessenger != nil {
		i.debugMessenger.Destroy(nil)
		i.debugMessenger = nil
	}

	if i.Instance != nil {
		i.Instance.Destroy(nil)
		i.Instance = nil
	}
}

func debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebug,
	}
}

func logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}
