package vkp

import (
	"fmt"
	"log"

	gu "github.com/docker/go-units"
)

// Allocation is a region handed out by an allocator, offsets are relative
// to the pool memory the allocator manages.
type Allocation struct {
	Offset uint64
	Size   uint64
	Object IDestructable
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

type IAllocator interface {
	Allocate(size uint64, align uint64) *Allocation
	Free(a *Allocation)
	DestroyContents()
	LogDetails()
}

// LinearAllocator hands out regions from a fixed size span, first fit. It
// keeps allocations sorted by offset so freed gaps can be reused.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	m := a % align
	if m == 0 {
		return a
	}
	a = (a - m) + align
	return a
}

func (p *LinearAllocator) Free(fa *Allocation) {
	fi := -1
	for i, a := range p.allocs {
		if a == fa {
			fi = i
		}
	}
	if fi != -1 {
		p.allocs = append(p.allocs[:fi], p.allocs[fi+1:]...)
	}
}

func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if align == 0 {
		align = 1
	}

	if len(p.allocs) == 0 {
		if size > p.Size {
			return nil
		}
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = []*Allocation{na}
		return na
	}

	// Head gap first
	if p.allocs[0].Offset >= size {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append([]*Allocation{na}, p.allocs...)
		return na
	}

	// Gaps between existing allocations
	for i := 0; i+1 < len(p.allocs); i++ {
		c := p.allocs[i]
		n := p.allocs[i+1]

		l := makeAlignUp(c.Offset+c.Size, align)
		h := n.Offset

		if h > l && h-l >= size {
			na := &Allocation{Offset: l, Size: size}

			p.allocs = append(p.allocs[:i+1], append([]*Allocation{na}, p.allocs[i+1:]...)...)
			return na
		}
	}

	// Tail
	last := p.allocs[len(p.allocs)-1]
	nl := makeAlignUp(last.Offset+last.Size, align)
	if nl <= p.Size && p.Size-nl >= size {
		na := &Allocation{Offset: nl, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}

	return nil
}

// DestroyContents destroys every object still held by an allocation
func (p *LinearAllocator) DestroyContents() {
	allocs := p.allocs
	p.allocs = nil
	for _, a := range allocs {
		if a.Object != nil {
			a.Object.Destroy()
		}
	}
}

func (p *LinearAllocator) LogDetails() {
	log.Printf("%s", p)
	log.Printf("allocations: %v", p.allocs)
}

// String summarizes usage in human readable sizes.
func (p *LinearAllocator) String() string {
	var used uint64
	for _, a := range p.allocs {
		used += a.Size
	}
	return fmt.Sprintf("%s of %s used, %d allocs", gu.BytesSize(float64(used)), gu.BytesSize(float64(p.Size)), len(p.allocs))
}
