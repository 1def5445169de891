package vkp

import (
	"errors"
	"log"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// RendererConfig bundles the size dependent configuration with the frame
// policy, so initial construction and every resize run through the same
// path.
type RendererConfig struct {
	Core CoreConfig

	// OverlapDepth selects the frame overlap policy, see FrameLoop
	OverlapDepth int

	// AcquireTimeout bounds each image acquisition
	AcquireTimeout time.Duration

	// UpdateFrame runs before each submission, for per frame state such
	// as projection uniforms. The renderer re-records the image's command
	// buffer afterwards when it returns true.
	UpdateFrame func(r *Renderer, imageIndex int) (rerecord bool, err error)
}

// Renderer owns the full presentation stack for one window: the size
// dependent Core, the swapchain presenter and the frame loop.
type Renderer struct {
	Connection *Connection
	Config     *RendererConfig
	Core       *Core
	Presenter  *SwapchainPresenter
	Loop       *FrameLoop

	resized bool
}

// NewRenderer builds the resource set at the window's current framebuffer
// size and wires up the frame loop.
func NewRenderer(conn *Connection, config *RendererConfig) (*Renderer, error) {
	r := &Renderer{
		Connection: conn,
		Config:     config,
	}

	core, err := NewCore(conn, &config.Core, conn.SurfaceExtent())
	if err != nil {
		return nil, err
	}
	r.Core = core

	presenter, err := NewSwapchainPresenter(conn, core)
	if err != nil {
		core.Destroy()
		return nil, err
	}
	r.Presenter = presenter

	r.Loop = NewFrameLoop(presenter, config.OverlapDepth, conn.SurfaceExtent)
	r.Loop.AcquireTimeout = config.AcquireTimeout
	r.Loop.BeforeSubmit = r.beforeSubmit

	return r, nil
}

func (r *Renderer) beforeSubmit(imageIndex int) error {
	if r.Config.UpdateFrame == nil {
		return nil
	}
	rerecord, err := r.Config.UpdateFrame(r, imageIndex)
	if err != nil {
		return err
	}
	if rerecord {
		return r.Core.RefreshCommandBuffer(imageIndex)
	}
	return nil
}

// NotifyResized flags that the window size changed. The next DrawFrame
// rebuilds before acquiring. Safe to call from a size callback.
func (r *Renderer) NotifyResized() {
	r.resized = true
}

// DrawFrame renders and presents one frame. A zero sized surface (a
// minimized window) skips the frame. Rejected submissions are logged and
// dropped per frame, only ErrDeviceLost and ErrTimeout and setup failures
// reach the caller.
func (r *Renderer) DrawFrame() error {
	extent := r.Connection.SurfaceExtent()
	if extent.Width == 0 || extent.Height == 0 {
		return nil
	}

	if r.resized {
		r.resized = false
		err := r.Loop.Rebuild()
		if err != nil {
			return err
		}
	}

	err := r.Loop.DrawFrame()

	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		log.Printf("frame dropped: %v", subErr)
		return nil
	}
	return err
}

// Extent returns the extent the current resource set was built for.
func (r *Renderer) Extent() vk.Extent2D {
	return r.Core.Extent()
}

// Destroy drains outstanding frames and tears the stack down. The
// connection is owned by the caller.
func (r *Renderer) Destroy() {
	r.Loop.Drain()
	r.Presenter.Destroy()
	r.Core.Destroy()
}
