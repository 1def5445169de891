package vkp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func deviceOfType(name string, t vk.PhysicalDeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		DeviceName: name,
		VKPhysicalDeviceProperties: vk.PhysicalDeviceProperties{
			DeviceType: t,
		},
	}
}

func TestSelectPhysicalDeviceRanking(t *testing.T) {
	cpu := deviceOfType("cpu", vk.PhysicalDeviceTypeCpu)
	integrated := deviceOfType("integrated", vk.PhysicalDeviceTypeIntegratedGpu)
	discrete := deviceOfType("discrete", vk.PhysicalDeviceTypeDiscreteGpu)
	virtual := deviceOfType("virtual", vk.PhysicalDeviceTypeVirtualGpu)

	got, err := SelectPhysicalDevice([]*PhysicalDevice{cpu, integrated, discrete, virtual}, nil)
	require.NoError(t, err)
	assert.Same(t, discrete, got)

	got, err = SelectPhysicalDevice([]*PhysicalDevice{cpu, virtual, integrated}, nil)
	require.NoError(t, err)
	assert.Same(t, integrated, got)

	got, err = SelectPhysicalDevice([]*PhysicalDevice{cpu, virtual}, nil)
	require.NoError(t, err)
	assert.Same(t, virtual, got)
}

func TestSelectPhysicalDeviceTiesKeepEnumerationOrder(t *testing.T) {
	first := deviceOfType("first", vk.PhysicalDeviceTypeDiscreteGpu)
	second := deviceOfType("second", vk.PhysicalDeviceTypeDiscreteGpu)

	got, err := SelectPhysicalDevice([]*PhysicalDevice{first, second}, nil)
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestSelectPhysicalDeviceSuitability(t *testing.T) {
	discrete := deviceOfType("discrete", vk.PhysicalDeviceTypeDiscreteGpu)
	integrated := deviceOfType("integrated", vk.PhysicalDeviceTypeIntegratedGpu)

	// a better ranked device loses when it is not suitable
	got, err := SelectPhysicalDevice([]*PhysicalDevice{discrete, integrated}, func(pd *PhysicalDevice) bool {
		return pd != discrete
	})
	require.NoError(t, err)
	assert.Same(t, integrated, got)
}

func TestHasExtensionUsesCachedList(t *testing.T) {
	pd := deviceOfType("discrete", vk.PhysicalDeviceTypeDiscreteGpu)
	pd.extensions = []string{"VK_KHR_surface", "VK_KHR_swapchain"}

	assert.True(t, pd.HasExtension("VK_KHR_swapchain"))
	assert.False(t, pd.HasExtension("VK_KHR_ray_tracing_pipeline"))
}

func TestSelectPhysicalDeviceRequiresSwapchainExtension(t *testing.T) {
	discrete := deviceOfType("discrete", vk.PhysicalDeviceTypeDiscreteGpu)
	discrete.extensions = []string{"VK_KHR_surface"}
	integrated := deviceOfType("integrated", vk.PhysicalDeviceTypeIntegratedGpu)
	integrated.extensions = []string{"VK_KHR_surface", "VK_KHR_swapchain"}

	// the better ranked device loses when it cannot drive a swapchain
	got, err := SelectPhysicalDevice([]*PhysicalDevice{discrete, integrated}, func(pd *PhysicalDevice) bool {
		return pd.HasExtension("VK_KHR_swapchain")
	})
	require.NoError(t, err)
	assert.Same(t, integrated, got)
}

func TestSelectPhysicalDeviceNoneFound(t *testing.T) {
	_, err := SelectPhysicalDevice(nil, nil)

	var setup *SetupError
	require.ErrorAs(t, err, &setup)
	assert.Equal(t, "physical device", setup.Stage)

	// suitable rejecting everything fails the same way
	cpu := deviceOfType("cpu", vk.PhysicalDeviceTypeCpu)
	_, err = SelectPhysicalDevice([]*PhysicalDevice{cpu}, func(*PhysicalDevice) bool { return false })
	require.ErrorAs(t, err, &setup)
}
