package vkp

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

type fakeMarker struct {
	p       *fakePresenter
	done    bool
	freed   bool
	waited  bool
	waitErr error
}

func (m *fakeMarker) Wait(timeout time.Duration) error {
	m.p.calls = append(m.p.calls, "wait")
	m.waited = true
	if m.waitErr != nil {
		return m.waitErr
	}
	if !m.done {
		m.done = true
		m.p.outstanding--
	}
	return nil
}

func (m *fakeMarker) Poll() bool {
	m.p.calls = append(m.p.calls, "poll")
	return m.done
}

func (m *fakeMarker) Free() {
	m.freed = true
}

// complete simulates the GPU finishing the frame's work
func (m *fakeMarker) complete() {
	if !m.done {
		m.done = true
		m.p.outstanding--
	}
}

type acquireResult struct {
	imageIndex int
	suboptimal bool
	err        error
}

type fakePresenter struct {
	calls   []string
	acquire []acquireResult

	imageCount int

	markers        []*fakeMarker
	outstanding    int
	maxOutstanding int

	presentSuboptimal bool
	presentErr        error

	rebuilds []vk.Extent2D

	// image count the presenter reports after a rebuild, zero keeps the
	// current count
	rebuildImageCount int
}

func newFakePresenter(acquire ...acquireResult) *fakePresenter {
	return &fakePresenter{acquire: acquire, imageCount: 3}
}

func (p *fakePresenter) Acquire(timeout time.Duration) (int, bool, error) {
	p.calls = append(p.calls, "acquire")
	if len(p.acquire) == 0 {
		return 0, false, nil
	}
	r := p.acquire[0]
	p.acquire = p.acquire[1:]
	return r.imageIndex, r.suboptimal, r.err
}

func (p *fakePresenter) Submit(imageIndex int) (Marker, error) {
	p.calls = append(p.calls, "submit")
	m := &fakeMarker{p: p}
	p.markers = append(p.markers, m)
	p.outstanding++
	if p.outstanding > p.maxOutstanding {
		p.maxOutstanding = p.outstanding
	}
	return m, nil
}

func (p *fakePresenter) Present(imageIndex int) (bool, error) {
	p.calls = append(p.calls, "present")
	return p.presentSuboptimal, p.presentErr
}

func (p *fakePresenter) Rebuild(extent vk.Extent2D) error {
	p.calls = append(p.calls, "rebuild")
	p.rebuilds = append(p.rebuilds, extent)
	if p.rebuildImageCount != 0 {
		p.imageCount = p.rebuildImageCount
	}
	return nil
}

func (p *fakePresenter) ImageCount() int {
	return p.imageCount
}

func fixedExtent(w, h uint32) func() vk.Extent2D {
	return func() vk.Extent2D { return vk.Extent2D{Width: w, Height: h} }
}

func TestDrawFrameBlocking(t *testing.T) {
	p := newFakePresenter()
	loop := NewFrameLoop(p, 1, fixedExtent(800, 600))

	for i := 0; i < 3; i++ {
		require.NoError(t, loop.DrawFrame())
		assert.Equal(t, 0, loop.InFlight())
	}

	// every cycle completes before the next acquire starts
	assert.Equal(t, []string{
		"acquire", "submit", "present", "wait",
		"acquire", "submit", "present", "wait",
		"acquire", "submit", "present", "wait",
	}, p.calls)
	assert.Equal(t, 1, p.maxOutstanding)

	for _, m := range p.markers {
		assert.True(t, m.waited)
		assert.True(t, m.freed)
	}
}

func TestDrawFrameSuboptimalSkips(t *testing.T) {
	p := newFakePresenter(acquireResult{imageIndex: 1, suboptimal: true})
	loop := NewFrameLoop(p, 1, fixedExtent(1024, 768))

	require.NoError(t, loop.DrawFrame())

	assert.NotContains(t, p.calls, "submit")
	assert.NotContains(t, p.calls, "present")
	require.Len(t, p.rebuilds, 1)
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, p.rebuilds[0])

	// the rebuilt chain serves the next frame normally
	require.NoError(t, loop.DrawFrame())
	assert.Contains(t, p.calls, "submit")
}

func TestDrawFrameStaleAcquireRebuilds(t *testing.T) {
	p := newFakePresenter(acquireResult{err: ErrChainStale})
	loop := NewFrameLoop(p, 1, fixedExtent(640, 480))

	require.NoError(t, loop.DrawFrame())

	assert.NotContains(t, p.calls, "submit")
	require.Len(t, p.rebuilds, 1)
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, p.rebuilds[0])
}

func TestDrawFrameStalePresentRebuilds(t *testing.T) {
	p := newFakePresenter()
	p.presentErr = ErrChainStale
	loop := NewFrameLoop(p, 2, fixedExtent(320, 200))

	require.NoError(t, loop.DrawFrame())

	require.Len(t, p.rebuilds, 1)
	assert.Equal(t, 0, loop.InFlight())
	// the submitted frame was drained before the rebuild
	require.Len(t, p.markers, 1)
	assert.True(t, p.markers[0].waited)
	assert.True(t, p.markers[0].freed)
}

func TestDrawFrameSuboptimalPresentRebuilds(t *testing.T) {
	p := newFakePresenter()
	p.presentSuboptimal = true
	loop := NewFrameLoop(p, 2, fixedExtent(320, 200))

	require.NoError(t, loop.DrawFrame())

	require.Len(t, p.rebuilds, 1)
	assert.Equal(t, 0, loop.InFlight())
}

func TestDrawFrameInFlightBound(t *testing.T) {
	p := newFakePresenter()
	loop := NewFrameLoop(p, 2, fixedExtent(800, 600))

	for i := 0; i < 5; i++ {
		require.NoError(t, loop.DrawFrame())
		assert.LessOrEqual(t, loop.InFlight(), 2)
	}

	// the loop never lets a third submission pile up
	assert.Equal(t, 2, p.maxOutstanding)

	// the oldest marker was reclaimed before the third submission
	assert.True(t, p.markers[0].waited)
	assert.True(t, p.markers[0].freed)

	loop.Drain()
	assert.Equal(t, 0, loop.InFlight())
	for _, m := range p.markers {
		assert.True(t, m.freed)
	}
}

func TestDrawFrameOverlapReclaimsFinishedWork(t *testing.T) {
	p := newFakePresenter()
	loop := NewFrameLoop(p, 2, fixedExtent(800, 600))

	require.NoError(t, loop.DrawFrame())
	require.Equal(t, 1, loop.InFlight())

	// the GPU finishes the first frame before the second is issued
	p.markers[0].complete()

	require.NoError(t, loop.DrawFrame())

	// the finished marker went away without a blocking wait
	assert.False(t, p.markers[0].waited)
	assert.True(t, p.markers[0].freed)
	assert.Equal(t, 1, loop.InFlight())
}

func TestDrawFrameTimeoutPropagates(t *testing.T) {
	p := newFakePresenter(acquireResult{err: ErrTimeout})
	loop := NewFrameLoop(p, 1, fixedExtent(800, 600))

	assert.ErrorIs(t, loop.DrawFrame(), ErrTimeout)
	assert.Empty(t, p.rebuilds)
}

func TestDrawFrameDeviceLostPropagates(t *testing.T) {
	p := newFakePresenter(acquireResult{err: ErrDeviceLost})
	loop := NewFrameLoop(p, 1, fixedExtent(800, 600))

	assert.ErrorIs(t, loop.DrawFrame(), ErrDeviceLost)
	assert.Empty(t, p.rebuilds)
}

func TestDrawFrameRebuildAdoptsNewImageCount(t *testing.T) {
	p := newFakePresenter(
		acquireResult{imageIndex: 0, suboptimal: true},
		acquireResult{imageIndex: 3},
	)
	p.rebuildImageCount = 4
	loop := NewFrameLoop(p, 1, fixedExtent(1024, 768))

	// the suboptimal acquire rebuilds at the current extent and the
	// presenter comes back with a different image count
	require.NoError(t, loop.DrawFrame())
	require.Len(t, p.rebuilds, 1)
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, p.rebuilds[0])
	assert.Equal(t, 4, loop.Presenter.ImageCount())

	// the next cycle runs against the grown chain, including its new
	// highest image index
	require.NoError(t, loop.DrawFrame())
	assert.Equal(t, []string{
		"acquire", "rebuild",
		"acquire", "submit", "present", "wait",
	}, p.calls)
}

func TestDrainLogsWaitFailure(t *testing.T) {
	p := newFakePresenter()
	loop := NewFrameLoop(p, 2, fixedExtent(800, 600))

	require.NoError(t, loop.DrawFrame())
	require.Len(t, p.markers, 1)
	p.markers[0].waitErr = ErrDeviceLost

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	loop.Drain()

	// the failure is reported but the marker is still freed
	assert.Contains(t, buf.String(), "device lost")
	assert.True(t, p.markers[0].freed)
	assert.Equal(t, 0, loop.InFlight())
}

func TestNewFrameLoopClampsDepth(t *testing.T) {
	p := newFakePresenter()

	assert.Equal(t, 1, NewFrameLoop(p, 0, fixedExtent(1, 1)).OverlapDepth)
	assert.Equal(t, FrameLag, NewFrameLoop(p, 10, fixedExtent(1, 1)).OverlapDepth)
}
