package vkp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	assert.Equal(t, uint64(12), makeAlignUp(12, 3))
	assert.Equal(t, uint64(12), makeAlignUp(10, 3))
	assert.Equal(t, uint64(0), makeAlignUp(0, 256))
}

func TestAllocatorFirstFit(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	assert.Nil(t, a.Allocate(2048, 1), "larger than the pool")

	first := a.Allocate(512, 1)
	require.NotNil(t, first)
	assert.Equal(t, uint64(0), first.Offset)

	assert.Nil(t, a.Allocate(768, 1), "no room left for this")

	second := a.Allocate(500, 1)
	require.NotNil(t, second)
	assert.Equal(t, uint64(512), second.Offset)

	assert.Nil(t, a.Allocate(50, 1))

	third := a.Allocate(5, 1)
	require.NotNil(t, third)

	assert.Nil(t, a.Allocate(20, 1))

	// freeing the middle opens a gap that can be refilled
	a.Free(second)
	refill := a.Allocate(500, 1)
	require.NotNil(t, refill)
	assert.Equal(t, uint64(512), refill.Offset)

	// freeing the head lets small allocations pack in from offset zero
	a.Free(first)
	assert.NotNil(t, a.Allocate(20, 1))
	assert.NotNil(t, a.Allocate(40, 1))
	assert.NotNil(t, a.Allocate(12, 1))
	assert.Nil(t, a.Allocate(500, 1))
	assert.NotNil(t, a.Allocate(5, 1))
}

func TestAllocatorAlignment(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	first := a.Allocate(10, 1)
	require.NotNil(t, first)

	aligned := a.Allocate(16, 256)
	require.NotNil(t, aligned)
	assert.Equal(t, uint64(256), aligned.Offset)

	// align zero is treated as no alignment, first fit reuses the gap the
	// alignment left behind
	loose := a.Allocate(8, 0)
	require.NotNil(t, loose)
	assert.Equal(t, uint64(10), loose.Offset)
}

type destroyRecorder struct {
	destroyed bool
}

func (d *destroyRecorder) Destroy() {
	d.destroyed = true
}

func TestAllocatorDestroyContents(t *testing.T) {
	a := LinearAllocator{Size: 64}

	obj := &destroyRecorder{}
	alloc := a.Allocate(32, 1)
	require.NotNil(t, alloc)
	alloc.Object = obj

	a.DestroyContents()

	assert.True(t, obj.destroyed)
	assert.NotNil(t, a.Allocate(64, 1), "allocator is empty afterwards")
}

func TestAllocatorString(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	assert.Equal(t, "0B of 1KiB used, 0 allocs", a.String())

	require.NotNil(t, a.Allocate(512, 1))
	assert.Equal(t, "512B of 1KiB used, 1 allocs", a.String())
}
