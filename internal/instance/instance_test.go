package instance

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/core/driver"
	"github.com/vkngwrapper/core/mocks"
)

func extensionSet(names ...string) map[string]*core1_0.ExtensionProperties {
	set := make(map[string]*core1_0.ExtensionProperties, len(names))
	for _, name := range names {
		set[name] = &core1_0.ExtensionProperties{ExtensionName: name}
	}
	return set
}

func createWith(t *testing.T, available map[string]*core1_0.ExtensionProperties, options Options) core1_0.InstanceCreateInfo {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loader := mocks.NewMockLoader(ctrl)
	loader.EXPECT().AvailableExtensions().Return(available, core1_0.VKSuccess, nil)

	vkInstance := mocks.NewMockInstance(ctrl)
	var created core1_0.InstanceCreateInfo
	loader.EXPECT().CreateInstance(nil, gomock.Any()).DoAndReturn(
		func(callbacks *driver.AllocationCallbacks, o core1_0.InstanceCreateInfo) (core1_0.Instance, common.VkResult, error) {
			created = o
			return vkInstance, core1_0.VKSuccess, nil
		})

	inst, err := FromLoader(loader, options)
	require.NoError(t, err)
	require.Equal(t, vkInstance, inst.Instance)

	vkInstance.EXPECT().Destroy(nil)
	inst.Destroy()
	require.Nil(t, inst.Instance)

	return created
}

func TestPortabilityEnumerationEnabledWhenAvailable(t *testing.T) {
	created := createWith(t,
		extensionSet("VK_KHR_surface", "VK_KHR_xlib_surface", "VK_KHR_portability_enumeration"),
		Options{ApplicationName: "presenter", Extensions: []string{"VK_KHR_surface", "VK_KHR_xlib_surface"}})

	require.Equal(t, "presenter", created.ApplicationName)
	require.Equal(t, []string{"VK_KHR_surface", "VK_KHR_xlib_surface", "VK_KHR_portability_enumeration"}, created.EnabledExtensionNames)
	require.EqualValues(t, 0x00000001, created.Flags)
	require.Empty(t, created.EnabledLayerNames)
}

func TestPortabilityEnumerationSkippedWhenAbsent(t *testing.T) {
	created := createWith(t,
		extensionSet("VK_KHR_surface"),
		Options{Extensions: []string{"VK_KHR_surface"}})

	require.Equal(t, []string{"VK_KHR_surface"}, created.EnabledExtensionNames)
	require.Zero(t, created.Flags)
}

func TestMissingWindowExtension(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loader := mocks.NewMockLoader(ctrl)
	loader.EXPECT().AvailableExtensions().Return(extensionSet("VK_KHR_surface"), core1_0.VKSuccess, nil)

	_, err := FromLoader(loader, Options{Extensions: []string{"VK_KHR_surface", "VK_KHR_wayland_surface"}})
	require.ErrorContains(t, err, "VK_KHR_wayland_surface")
}

func TestMissingValidationLayer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loader := mocks.NewMockLoader(ctrl)
	loader.EXPECT().AvailableExtensions().Return(extensionSet("VK_EXT_debug_utils"), core1_0.VKSuccess, nil)
	loader.EXPECT().AvailableLayers().Return(map[string]*core1_0.LayerProperties{}, core1_0.VKSuccess, nil)

	_, err := FromLoader(loader, Options{EnableValidation: true})
	require.ErrorContains(t, err, "VK_LAYER_KHRONOS_validation")
}
