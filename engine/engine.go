// Package engine implements the filesystem core: stat, lookup, read,
// write, create, unlink, and image formatting, layered over blockdev and
// layout. Every operation re-derives the superblock and any bitmaps it
// needs from the device rather than trusting cached state, so the two
// on-disk bitmaps and the inode table never drift out of sync with each
// other across calls.
package engine

import (
	"github.com/gunrockfs/ufs/bitmap"
	"github.com/gunrockfs/ufs/blockdev"
	"github.com/gunrockfs/ufs/layout"
	"github.com/gunrockfs/ufs/ufserrors"
)

// RootInodeNumber is the inode number of the filesystem root directory.
const RootInodeNumber = 0

// Engine exposes the six core operations over a single block device. It
// holds no lock and no cross-call cache; callers must serialize access to
// a given Device themselves, the same way they must serialize access to
// the underlying file or image.
type Engine struct {
	dev blockdev.Device
}

// New wraps dev as a filesystem Engine.
func New(dev blockdev.Device) *Engine {
	return &Engine{dev: dev}
}

// readSuperblock loads the (immutable) superblock that every operation
// starts from.
func (e *Engine) readSuperblock() (layout.Superblock, error) {
	return layout.ReadSuperblock(e.dev)
}

// loadInode reads inode inum with no bitmap check, failing InvalidInode if
// the index is out of range or the on-disk type is neither Directory nor
// RegularFile. Stat and Read both resolve inodes through this path rather
// than consulting the allocation bitmap, since a valid type is already
// proof enough that the inode is live.
func (e *Engine) loadInode(super *layout.Superblock, inum int) (layout.Inode, error) {
	if inum < 0 || inum >= int(super.NumInodes) {
		return layout.Inode{}, ufserrors.New(ufserrors.InvalidInode).
			WithMessage("inode number out of range")
	}
	inode, err := layout.ReadInode(e.dev, super, inum)
	if err != nil {
		return layout.Inode{}, err
	}
	if !inode.Type.IsValid() {
		return layout.Inode{}, ufserrors.New(ufserrors.InvalidInode).
			WithMessage("inode type is neither directory nor regular file")
	}
	return inode, nil
}

// loadInodeBitmap reads the inode allocation bitmap as a bitmap.Allocator
// backed by freshly-read bytes.
func (e *Engine) loadInodeBitmap(super *layout.Superblock) ([]byte, *bitmap.Allocator, error) {
	buf, err := layout.ReadBitmapRegion(e.dev, super.InodeBitmapAddr, super.InodeBitmapLen)
	if err != nil {
		return nil, nil, err
	}
	return buf, bitmap.Wrap(buf, int(super.NumInodes)), nil
}

// loadDataBitmap reads the data allocation bitmap as a bitmap.Allocator
// backed by freshly-read bytes.
func (e *Engine) loadDataBitmap(super *layout.Superblock) ([]byte, *bitmap.Allocator, error) {
	buf, err := layout.ReadBitmapRegion(e.dev, super.DataBitmapAddr, super.DataBitmapLen)
	if err != nil {
		return nil, nil, err
	}
	return buf, bitmap.Wrap(buf, int(super.NumData)), nil
}

// loadAllocatedDirectory loads inum, failing InvalidInode if it's out of
// range, unallocated, or not a directory.
func (e *Engine) loadAllocatedDirectory(super *layout.Superblock, inum int) (layout.Inode, error) {
	inode, err := e.loadInode(super, inum)
	if err != nil {
		return layout.Inode{}, err
	}

	_, inodeBM, err := e.loadInodeBitmap(super)
	if err != nil {
		return layout.Inode{}, err
	}
	if inum < 0 || inum >= int(super.NumInodes) || !inodeBM.IsSet(inum) {
		return layout.Inode{}, ufserrors.New(ufserrors.InvalidInode).
			WithMessage("inode is not allocated")
	}
	if inode.Type != layout.Directory {
		return layout.Inode{}, ufserrors.New(ufserrors.InvalidInode).
			WithMessage("inode is not a directory")
	}
	return inode, nil
}

// sizeInBlocks returns ceil(size / blockSize).
func sizeInBlocks(size, blockSize uint32) uint32 {
	if size == 0 {
		return 0
	}
	return (size + blockSize - 1) / blockSize
}

// readInodeContent reads up to effective bytes from inode's direct blocks,
// stopping at the first zero pointer or once effective bytes have been
// copied, whichever comes first. Both Read and internal directory scans
// (Lookup, Create, Unlink) share this.
func (e *Engine) readInodeContent(inode *layout.Inode, size uint32) ([]byte, error) {
	blockSize := e.dev.BlockSize()
	maxBytes := uint32(layout.DirectPtrs) * blockSize

	effective := size
	if inode.Size < effective {
		effective = inode.Size
	}
	if effective > maxBytes {
		effective = maxBytes
	}

	out := make([]byte, 0, effective)
	var bytesRead uint32
	for i := 0; i < layout.DirectPtrs && bytesRead < effective; i++ {
		ptr := inode.Direct[i]
		if ptr == 0 {
			break
		}

		block := make([]byte, blockSize)
		if err := e.dev.ReadBlock(ptr, block); err != nil {
			return nil, err
		}

		want := effective - bytesRead
		if want > blockSize {
			want = blockSize
		}
		out = append(out, block[:want]...)
		bytesRead += want
	}
	return out, nil
}
