package vkp

// ImageResource is an image whose memory comes from an ImageResourcePool.
type ImageResource struct {
	Image
	ResourcePool *ImageResourcePool
	Allocation   *Allocation
}

func (r *ImageResource) Destroy() {
	r.Free()
}

// Free returns the image's region to its pool and destroys the image.
func (r *ImageResource) Free() {
	if r.Allocation != nil {
		r.ResourcePool.Allocator.Free(r.Allocation)
		r.Allocation = nil
	}
	r.Image.Destroy()
}
