package engine

import (
	"github.com/gunrockfs/ufs/layout"
	"github.com/gunrockfs/ufs/ufserrors"
)

// Write replaces inodeNumber's content with the first size bytes of
// buffer, (re)allocating or freeing data blocks as needed, and returns the
// number of bytes written (always size, on success).
//
// All mutations are staged in memory and flushed at the end; a NoSpace
// failure partway through allocation leaves nothing durable once the
// caller rolls back the wrapping transaction. Write never cleans up after
// its own partial failures — that's the transaction's job, not the
// engine's.
func (e *Engine) Write(inodeNumber int, buffer []byte, size int) (int, error) {
	if size < 0 {
		return 0, ufserrors.NewWithMessage(ufserrors.InvalidSize, "size must be non-negative")
	}

	super, err := e.readSuperblock()
	if err != nil {
		return 0, err
	}

	inode, err := e.loadInode(&super, inodeNumber)
	if err != nil {
		return 0, err
	}
	if inode.Type != layout.RegularFile {
		return 0, ufserrors.New(ufserrors.InvalidType).WithMessage("not a regular file")
	}

	blockSize := e.dev.BlockSize()
	maxBytes := int(layout.DirectPtrs) * int(blockSize)
	if size > maxBytes {
		return 0, ufserrors.New(ufserrors.InvalidSize).WithMessage("exceeds maximum file size")
	}

	dataBitmapBuf, dataBM, err := e.loadDataBitmap(&super)
	if err != nil {
		return 0, err
	}

	required := int(sizeInBlocks(uint32(size), blockSize))
	current := int(sizeInBlocks(inode.Size, blockSize))

	if required < current {
		for i := required; i < current; i++ {
			dataBM.Free(int(inode.Direct[i] - super.DataRegionAddr))
			inode.Direct[i] = 0
		}
	} else if required > current {
		for i := current; i < required; i++ {
			allocated, err := dataBM.Allocate()
			if err != nil {
				return 0, err
			}
			inode.Direct[i] = super.DataRegionAddr + uint32(allocated)
		}
	}

	for i := 0; i < required; i++ {
		block := make([]byte, blockSize)
		start := i * int(blockSize)
		end := start + int(blockSize)
		if end > size {
			end = size
		}
		copy(block, buffer[start:end])
		if err := e.dev.WriteBlock(inode.Direct[i], block); err != nil {
			return 0, err
		}
	}

	inode.Size = uint32(size)

	if err := layout.WriteBitmapRegion(e.dev, super.DataBitmapAddr, super.DataBitmapLen, dataBitmapBuf); err != nil {
		return 0, err
	}
	if err := layout.WriteInode(e.dev, &super, inodeNumber, &inode); err != nil {
		return 0, err
	}

	return size, nil
}
