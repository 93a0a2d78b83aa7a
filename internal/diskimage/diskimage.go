// Package diskimage implements the backing store simmmu's disk_read and
// disk_write calls operate on: a fixed number of page-sized slabs carved
// out of one anonymous mmap region, mirroring how
// internal/asm/amd64/exec.go in the teacher reserves one mmap'd arena and
// slices fixed-size regions out of it rather than issuing a syscall per
// allocation.
package diskimage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Image is a fixed-size, slab-indexed block store. It never touches a real
// file — the spec's Non-goals exclude real disk I/O — so "disk" here means
// only "storage that outlives a frame's mmap lifetime conceptually", backed
// by its own independent anonymous mapping.
type Image struct {
	slotSize int
	mem      []byte
}

// Open allocates an Image with nslots slots of slotSize bytes each, backed
// by one anonymous mmap, the same unix.Mmap(-1, 0, size,
// PROT_READ|PROT_WRITE, MAP_PRIVATE|MAP_ANON) call the teacher uses to
// reserve its JIT code arena.
func Open(nslots, slotSize int) (*Image, error) {
	size := nslots * slotSize
	if size == 0 {
		size = slotSize // unix.Mmap rejects a zero-length mapping
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("diskimage: mmap %d bytes: %w", size, err)
	}
	return &Image{slotSize: slotSize, mem: mem}, nil
}

// Close unmaps the backing region. It is safe to call once; a second call
// on an already-closed Image is a programming error, matching the
// teacher's unchecked deferred Munmap idiom.
func (img *Image) Close() error {
	return unix.Munmap(img.mem)
}

// ReadSlot copies slot's bytes into dst, which must be at least slotSize
// long.
func (img *Image) ReadSlot(slot int, dst []byte) {
	start := slot * img.slotSize
	copy(dst, img.mem[start:start+img.slotSize])
}

// WriteSlot copies src into slot, truncating or zero-padding to slotSize.
func (img *Image) WriteSlot(slot int, src []byte) {
	start := slot * img.slotSize
	n := copy(img.mem[start:start+img.slotSize], src)
	clear(img.mem[start+n : start+img.slotSize])
}

// SlotSize returns the fixed size of one slot.
func (img *Image) SlotSize() int { return img.slotSize }
