package vkp

import (
	"fmt"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Connection holds the Vulkan objects whose lifetime spans the whole
// application: instance, surface, physical and logical device, queues and
// the pools that hang off them. A Connection never changes after
// NewConnection returns; everything that depends on the surface size lives
// in Core and is rebuilt on resize instead.
type Connection struct {
	App      *App
	Instance *Instance

	Window    *glfw.Window
	VKSurface vk.Surface

	PhysicalDevice *PhysicalDevice
	Device         *Device

	GraphicsQueue *Queue
	PresentQueue  *Queue

	GraphicsCommandPool *CommandPool
	ResourceManager     *ResourceManager

	DefaultNumSwapchainImages int
}

// ConnectionOptions adjusts how NewConnection sets things up.
type ConnectionOptions struct {
	// EnableValidation turns on the Khronos validation layer and wires the
	// default debug callback.
	EnableValidation bool

	// SelectDevice overrides the default ranked physical device choice.
	SelectDevice func([]*PhysicalDevice) (*PhysicalDevice, error)
}

// NewConnection initializes Vulkan and builds the immutable half of a
// presentation setup. window may be nil for headless and compute work, in
// which case no surface is created and PresentQueue is the graphics queue.
func NewConnection(app *App, window *glfw.Window, options *ConnectionOptions) (*Connection, error) {
	c := &Connection{App: app, Window: window}

	if window != nil {
		for _, ext := range window.GetRequiredInstanceExtensions() {
			app.EnableExtension(ext)
		}
	}

	if options != nil && options.EnableValidation {
		app.EnableDebugging()
	}

	var err error
	c.Instance, err = app.CreateInstance()
	if err != nil {
		return nil, err
	}

	if options != nil && options.EnableValidation {
		c.Instance.UseDefaultDebugCallback()
	}

	if window != nil {
		surface, err := window.CreateWindowSurface(c.Instance.VKInstance, nil)
		if err != nil {
			c.Instance.Destroy()
			return nil, setupErr("surface", err)
		}
		c.VKSurface = vk.SurfaceFromPointer(surface)
	}

	err = c.initDevice(options)
	if err != nil {
		if c.VKSurface != vk.NullSurface {
			vk.DestroySurface(c.Instance.VKInstance, c.VKSurface, nil)
		}
		c.Instance.Destroy()
		return nil, err
	}

	return c, nil
}

func (c *Connection) initDevice(options *ConnectionOptions) error {
	physicalDevices, err := c.Instance.PhysicalDevices()
	if err != nil {
		return setupErr("physical device", err)
	}

	suitable := func(pd *PhysicalDevice) bool {
		queues, err := pd.QueueFamilies()
		if err != nil {
			return false
		}
		if c.VKSurface == vk.NullSurface {
			return len(queues.FilterGraphics()) > 0
		}
		if !pd.HasExtension("VK_KHR_swapchain") {
			return false
		}
		return len(queues.FilterGraphicsAndPresent(c.VKSurface)) > 0
	}

	var pdevice *PhysicalDevice
	if options != nil && options.SelectDevice != nil {
		pdevice, err = options.SelectDevice(physicalDevices)
	} else {
		pdevice, err = SelectPhysicalDevice(physicalDevices, suitable)
	}
	if err != nil {
		return err
	}

	queues, err := pdevice.QueueFamilies()
	if err != nil {
		return setupErrf("queue family", "unable to load device queue families: %v", err)
	}

	var gqueues QueueFamilySlice
	if c.VKSurface == vk.NullSurface {
		gqueues = queues.FilterGraphics()
	} else {
		gqueues = queues.FilterGraphicsAndPresent(c.VKSurface)
	}

	if len(gqueues) == 0 {
		return setupErrf("queue family", "no graphics capable queues found on device: %v", pdevice)
	}

	enabledExtensions := []string{}
	if c.VKSurface != vk.NullSurface {
		enabledExtensions = []string{"VK_KHR_swapchain"}
	}

	ldevice, err := pdevice.CreateLogicalDeviceWithOptions(gqueues[:1], &CreateDeviceOptions{
		EnabledExtensions: enabledExtensions,
	})
	if err != nil {
		return fmt.Errorf("unable to create device: %w", err)
	}

	c.Device = ldevice
	c.PhysicalDevice = pdevice

	// The family passed CreateLogicalDeviceWithOptions supports both
	// graphics and present, one queue serves as both.
	queue := ldevice.GetQueue(gqueues[0])
	c.GraphicsQueue = queue
	c.PresentQueue = queue

	if c.VKSurface != vk.NullSurface {
		c.DefaultNumSwapchainImages, err = c.Device.DefaultNumSwapchainImages(c.VKSurface)
		if err != nil {
			return err
		}
	}

	c.GraphicsCommandPool, err = c.Device.CreateCommandPool(c.GraphicsQueue.QueueFamily)
	if err != nil {
		return err
	}

	c.ResourceManager = c.Device.CreateResourceManager()

	return nil
}

// SurfaceExtent reads the current framebuffer size from the window.
func (c *Connection) SurfaceExtent() vk.Extent2D {
	if c.Window == nil {
		return vk.Extent2D{}
	}
	width, height := c.Window.GetFramebufferSize()
	return vk.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// Destroy tears the connection down. Anything built on the connection, in
// particular any Core, must already be destroyed.
func (c *Connection) Destroy() {
	c.Device.WaitIdle()

	if c.ResourceManager != nil {
		c.ResourceManager.Destroy()
	}
	if c.GraphicsCommandPool != nil {
		c.GraphicsCommandPool.Destroy()
	}
	if c.VKSurface != vk.NullSurface {
		vk.DestroySurface(c.Instance.VKInstance, c.VKSurface, nil)
	}
	c.Device.Destroy()
	c.Instance.Destroy()
}
