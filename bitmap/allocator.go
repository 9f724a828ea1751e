// Package bitmap implements the lowest-free-index allocation bitmap used
// for both the inode bitmap and the data bitmap.
package bitmap

import (
	"github.com/boljen/go-bitmap"

	"github.com/gunrockfs/ufs/ufserrors"
)

// Allocator wraps a raw on-disk bitmap byte buffer. It never copies the
// buffer: Allocate/Free mutate the same bytes the caller will persist via
// the layout codec.
type Allocator struct {
	bits     bitmap.Bitmap
	capacity int
}

// Wrap adapts buf, a byte buffer at least ceil(capacity/8) bytes long, into
// an Allocator addressing capacity bits.
func Wrap(buf []byte, capacity int) *Allocator {
	return &Allocator{bits: bitmap.Bitmap(buf), capacity: capacity}
}

// IsSet reports whether bit i is allocated. The caller guarantees
// 0 <= i < capacity.
func (a *Allocator) IsSet(i int) bool {
	return a.bits.Get(i)
}

// Allocate scans from 0 upward and marks the first free bit allocated,
// returning its index. It fails with ufserrors.NoSpace if the bitmap is
// full. Allocation is deterministic: lowest free index always wins.
func (a *Allocator) Allocate() (int, error) {
	for i := 0; i < a.capacity; i++ {
		if !a.bits.Get(i) {
			a.bits.Set(i, true)
			return i, nil
		}
	}
	return 0, ufserrors.New(ufserrors.NoSpace)
}

// Free clears bit i. The caller guarantees i was set.
func (a *Allocator) Free(i int) {
	a.bits.Set(i, false)
}

// Capacity returns the number of addressable bits.
func (a *Allocator) Capacity() int {
	return a.capacity
}
