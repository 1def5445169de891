package vkp

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestVertexLayout(t *testing.T) {
	binding := VertexData{}.GetBindingDescription()
	assert.Equal(t, uint32(0), binding.Binding)
	assert.Equal(t, uint32(unsafe.Sizeof(Vertex{})), binding.Stride)
	assert.Equal(t, vk.VertexInputRateVertex, binding.InputRate)

	attrs := VertexData{}.GetAttributeDescriptions()
	require.Len(t, attrs, 2)

	assert.Equal(t, vk.FormatR32g32Sint, attrs[0].Format)
	assert.Equal(t, uint32(0), attrs[0].Offset)

	assert.Equal(t, vk.FormatR8g8b8Uint, attrs[1].Format)
	assert.Equal(t, uint32(unsafe.Offsetof(Vertex{}.Color)), attrs[1].Offset)
}

func TestTriangleVertices(t *testing.T) {
	tri := Triangle()
	require.Len(t, tri, 3)

	assert.Equal(t, [2]int32{100, 100}, tri[0].Pos)
	assert.Equal(t, [3]uint8{255, 0, 35}, tri[0].Color)
	assert.Equal(t, [2]int32{200, 100}, tri[1].Pos)
	assert.Equal(t, [3]uint8{0, 255, 50}, tri[1].Color)
	assert.Equal(t, [2]int32{150, 200}, tri[2].Pos)
	assert.Equal(t, [3]uint8{0, 100, 255}, tri[2].Color)

	assert.Len(t, tri.Bytes(), 3*int(unsafe.Sizeof(Vertex{})))

	// construction is deterministic
	assert.Equal(t, tri.Bytes(), Triangle().Bytes())
}

func TestMVPForExtent(t *testing.T) {
	extent := vk.Extent2D{Width: 800, Height: 600}

	m := NewMVPForExtent(extent)
	assert.Len(t, m.Bytes(), 64)

	// same extent, same projection
	again := NewMVPForExtent(extent)
	assert.Equal(t, m.Bytes(), again.Bytes())

	// a resize changes the projection, and setting the old extent back
	// restores it exactly
	m.SetOrthoForExtent(vk.Extent2D{Width: 1024, Height: 768})
	assert.NotEqual(t, m.Bytes(), again.Bytes())

	m.SetOrthoForExtent(extent)
	assert.Equal(t, m.Bytes(), again.Bytes())
}

func TestMVPMapsPixelsToClipSpace(t *testing.T) {
	m := NewMVPForExtent(vk.Extent2D{Width: 200, Height: 100})

	// column major: x' = m[0][0]*x + m[3][0]
	atZero := m.Projection[0][0]*0 + m.Projection[3][0]
	atWidth := m.Projection[0][0]*200 + m.Projection[3][0]
	assert.InDelta(t, -1.0, atZero, 1e-6)
	assert.InDelta(t, 1.0, atWidth, 1e-6)

	top := m.Projection[1][1]*0 + m.Projection[3][1]
	bottom := m.Projection[1][1]*100 + m.Projection[3][1]
	assert.InDelta(t, -1.0, top, 1e-6)
	assert.InDelta(t, 1.0, bottom, 1e-6)
}
