package vkp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func familyWithFlags(index int, flags vk.QueueFlagBits) *QueueFamily {
	return &QueueFamily{
		Index: index,
		VKQueueFamilyProperties: vk.QueueFamilyProperties{
			QueueFlags: vk.QueueFlags(flags),
		},
	}
}

func TestQueueFamilyFilters(t *testing.T) {
	families := QueueFamilySlice{
		familyWithFlags(0, vk.QueueGraphicsBit|vk.QueueComputeBit|vk.QueueTransferBit),
		familyWithFlags(1, vk.QueueComputeBit),
		familyWithFlags(2, vk.QueueTransferBit),
	}

	graphics := families.FilterGraphics()
	require.Len(t, graphics, 1)
	assert.Equal(t, 0, graphics[0].Index)

	compute := families.FilterCompute()
	require.Len(t, compute, 2)
	assert.Equal(t, 0, compute[0].Index)
	assert.Equal(t, 1, compute[1].Index)

	transfer := families.FilterTransfer()
	require.Len(t, transfer, 2)

	assert.Empty(t, QueueFamilySlice{}.FilterGraphics())
}

func TestQueueFamilyFlags(t *testing.T) {
	q := familyWithFlags(0, vk.QueueGraphicsBit|vk.QueueComputeBit)

	assert.True(t, q.IsGraphics())
	assert.True(t, q.IsCompute())
	assert.False(t, q.IsTransfer())
}
