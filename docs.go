/*
Package vkp manages the window-size-dependent half of a Vulkan presentation
setup: the swapchain, the per-image framebuffers and pre-recorded command
buffers, the viewport, and the pipeline that renders into them. Vulkan makes
all of these immutable once built, so a window resize (or a swapchain the
driver reports as suboptimal) forces the whole set to be torn down and
rebuilt. This package keeps that rebuild behind one code path, so initial
construction and recreation cannot drift apart.

The package splits the world into two halves. The Connection holds
everything that never changes for the life of the process: the instance,
the selected physical device, the logical device, a graphics+present queue,
and the window surface with a snapshot of its capabilities. The Core holds
everything that depends on the current pixel dimensions and is rebuilt
wholesale by Recreate.

Driving a frame is the job of the FrameLoop, which talks to the driver
through the small Presenter contract: acquire an image (which may report
that the chain has gone stale), submit the pre-recorded commands for that
image, present it, and keep a completion marker for the submitted work. The
loop supports two disciplines: wait out every frame before returning (never
more than one frame of GPU work outstanding) or retain the marker and
reclaim it before the next submission, allowing two frames in flight.
Because Presenter is an interface the loop is testable against a fake
backend, without a GPU.

Errors are typed rather than fatal: a setup failure, a stale chain, a
rejected submission, a lost device and an expired wait are all distinct,
and the policy for each (retry, rebuild, skip the frame, terminate) belongs
to the caller, not to this package.
*/
package vkp
