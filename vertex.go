package vkp

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"
)

// BufferObject is anything that can provide its contents as raw bytes for
// upload into a buffer.
type BufferObject interface {
	Bytes() []byte
}

// VertexSource is a BufferObject that also describes its vertex layout
type VertexSource interface {
	BufferObject
	VertexDescriptor
}

// VertexDescriptor describes how the pipeline should read a vertex buffer
type VertexDescriptor interface {
	GetBindingDescription() vk.VertexInputBindingDescription
	GetAttributeDescriptions() []vk.VertexInputAttributeDescription
}

// Vertex is a single vertex with an integer pixel position and an 8 bit
// RGB color. Positions are in pixels, the projection matrix maps them onto
// the surface.
type Vertex struct {
	Pos   [2]int32
	Color [3]uint8
}

type VertexData []Vertex

func (v VertexData) Bytes() []byte {
	size := len(v) * int(unsafe.Sizeof(Vertex{}))
	return ToBytes(unsafe.Pointer(&v[0]), size)
}

func (v VertexData) GetBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}
}

func (v VertexData) GetAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sint,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR8g8b8Uint,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}

// Triangle returns a small demo triangle positioned in pixel space.
func Triangle() VertexData {
	return VertexData{
		{Pos: [2]int32{100, 100}, Color: [3]uint8{255, 0, 35}},
		{Pos: [2]int32{200, 100}, Color: [3]uint8{0, 255, 50}},
		{Pos: [2]int32{150, 200}, Color: [3]uint8{0, 100, 255}},
	}
}

// MVP carries the projection used to map pixel coordinates onto the
// surface. Layout matches the std140 uniform block declared in the vertex
// shader.
type MVP struct {
	Projection lin.Mat4x4
}

func (m *MVP) Bytes() []byte {
	return ToBytes(unsafe.Pointer(m), int(unsafe.Sizeof(*m)))
}

// SetOrthoForExtent rebuilds the projection so that one unit equals one
// pixel of the extent, origin in the top left corner.
func (m *MVP) SetOrthoForExtent(extent vk.Extent2D) {
	m.Projection.Identity()
	m.Projection.Ortho(0, float32(extent.Width), 0, float32(extent.Height), -1, 1)
}

// NewMVPForExtent returns an MVP projecting pixel coordinates of extent.
func NewMVPForExtent(extent vk.Extent2D) *MVP {
	m := &MVP{}
	m.SetOrthoForExtent(extent)
	return m
}
