package vkp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestClampImageCount(t *testing.T) {
	// zero asks for one more than the minimum
	assert.Equal(t, uint32(3), clampImageCount(0, 2, 8))

	// unbounded surface (max 0) keeps the request
	assert.Equal(t, uint32(5), clampImageCount(5, 2, 0))

	assert.Equal(t, uint32(2), clampImageCount(1, 2, 8))
	assert.Equal(t, uint32(8), clampImageCount(12, 2, 8))

	// degenerate surface with min == max
	assert.Equal(t, uint32(4), clampImageCount(0, 4, 4))
}

func TestChooseSwapExtentCurrent(t *testing.T) {
	caps := &vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 800, Height: 600},
	}

	got := chooseSwapExtent(caps, vk.Extent2D{Width: 100, Height: 100})
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, got)
}

func TestChooseSwapExtentSentinel(t *testing.T) {
	caps := &vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	// the desired size wins when the surface leaves it to us
	got := chooseSwapExtent(caps, vk.Extent2D{Width: 1280, Height: 720})
	assert.Equal(t, vk.Extent2D{Width: 1280, Height: 720}, got)

	// but it still gets clamped into the supported range
	got = chooseSwapExtent(caps, vk.Extent2D{Width: 16, Height: 9000})
	assert.Equal(t, vk.Extent2D{Width: 64, Height: 4096}, got)
}

func TestChooseCompositeAlpha(t *testing.T) {
	opaque := vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit)
	pre := vk.CompositeAlphaFlags(vk.CompositeAlphaPreMultipliedBit)
	inherit := vk.CompositeAlphaFlags(vk.CompositeAlphaInheritBit)

	assert.Equal(t, vk.CompositeAlphaOpaqueBit, chooseCompositeAlpha(opaque|pre))
	assert.Equal(t, vk.CompositeAlphaPreMultipliedBit, chooseCompositeAlpha(pre|inherit))
	assert.Equal(t, vk.CompositeAlphaInheritBit, chooseCompositeAlpha(inherit))

	// nothing reported still yields a usable default
	assert.Equal(t, vk.CompositeAlphaOpaqueBit, chooseCompositeAlpha(0))
}
