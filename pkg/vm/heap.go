package vm

import "github.com/pkg/errors"

// block is one first-fit free-list node. The heap is modeled as a single
// contiguous region starting at the Heap's base address; blocks partition
// it in address order with no gaps.
type block struct {
	start int32
	size  int32
	free  bool
}

// Heap is a first-fit allocator over a fixed-size int32-addressed region.
// Alloc splits the first free block large enough to satisfy a request;
// Free marks a block free and coalesces it with free neighbors.
type Heap struct {
	base   int32
	blocks []*block
	mem    []int32
}

// NewHeap creates a heap of capacity words (int32 slots), based at base.
func NewHeap(base, capacity int32) *Heap {
	return &Heap{
		base:   base,
		blocks: []*block{{start: base, size: capacity, free: true}},
		mem:    make([]int32, capacity),
	}
}

// Alloc reserves n contiguous words and returns the address of the first
// one. It returns an error if no free block is large enough.
func (h *Heap) Alloc(n int32) (int32, error) {
	if n <= 0 {
		return 0, errors.Errorf("heap: invalid allocation size %d", n)
	}
	for i, b := range h.blocks {
		if !b.free || b.size < n {
			continue
		}
		addr := b.start
		if b.size > n {
			remainder := &block{start: b.start + n, size: b.size - n, free: true}
			b.size = n
			rest := append([]*block{remainder}, h.blocks[i+1:]...)
			h.blocks = append(h.blocks[:i+1], rest...)
		}
		b.free = false
		return addr, nil
	}
	return 0, errors.Errorf("heap: out of memory, no free block >= %d words", n)
}

// Free releases the block starting at addr and coalesces it with any
// immediately adjacent free blocks.
func (h *Heap) Free(addr int32) error {
	for i, b := range h.blocks {
		if b.start != addr {
			continue
		}
		if b.free {
			return errors.Errorf("heap: double free at address %d", addr)
		}
		b.free = true
		for off := int32(0); off < b.size; off++ {
			idx, err := h.index(b.start + off)
			if err != nil {
				return err
			}
			h.mem[idx] = 0
		}
		if i+1 < len(h.blocks) && h.blocks[i+1].free {
			b.size += h.blocks[i+1].size
			h.blocks = append(h.blocks[:i+1], h.blocks[i+2:]...)
		}
		if i > 0 && h.blocks[i-1].free {
			prev := h.blocks[i-1]
			prev.size += b.size
			h.blocks = append(h.blocks[:i], h.blocks[i+1:]...)
		}
		return nil
	}
	return errors.Errorf("heap: free of unallocated address %d", addr)
}

func (h *Heap) index(addr int32) (int, error) {
	i := addr - h.base
	if i < 0 || int(i) >= len(h.mem) {
		return 0, errors.Errorf("heap: address %d out of range", addr)
	}
	return int(i), nil
}

func (h *Heap) Read(addr int32) (int32, error) {
	i, err := h.index(addr)
	if err != nil {
		return 0, err
	}
	return h.mem[i], nil
}

func (h *Heap) Write(addr, value int32) error {
	i, err := h.index(addr)
	if err != nil {
		return err
	}
	h.mem[i] = value
	return nil
}

// InUse reports total words currently allocated, for -s stats reporting.
func (h *Heap) InUse() int32 {
	var n int32
	for _, b := range h.blocks {
		if !b.free {
			n += b.size
		}
	}
	return n
}
