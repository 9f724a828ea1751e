package engine

import (
	"github.com/gunrockfs/ufs/bitmap"
	"github.com/gunrockfs/ufs/layout"
	"github.com/gunrockfs/ufs/ufserrors"
)

// Create adds a new directory entry named name inside parentInodeNumber,
// pointing at a freshly allocated inode of the given type, and returns its
// inode number. If an entry with that exact name already exists, Create is
// idempotent when the types match and fails InvalidType when they don't:
// re-running the same create is harmless, but stepping on an existing
// entry of a different kind is a caller error.
func (e *Engine) Create(parentInodeNumber int, typ layout.InodeType, name string) (int, error) {
	if len(name) == 0 || len(name) >= layout.DirEntNameSize {
		return 0, ufserrors.New(ufserrors.InvalidName)
	}
	if typ != layout.Directory && typ != layout.RegularFile {
		return 0, ufserrors.New(ufserrors.InvalidType)
	}

	super, err := e.readSuperblock()
	if err != nil {
		return 0, err
	}
	parent, err := e.loadAllocatedDirectory(&super, parentInodeNumber)
	if err != nil {
		return 0, err
	}

	if existing, existingType, found, err := e.findEntry(&super, &parent, name); err != nil {
		return 0, err
	} else if found {
		if existingType != typ {
			return 0, ufserrors.New(ufserrors.InvalidType).
				WithMessage("entry exists with a different type")
		}
		return existing, nil
	}

	inodeBitmapBuf, inodeBM, err := e.loadInodeBitmap(&super)
	if err != nil {
		return 0, err
	}
	newInum, err := inodeBM.Allocate()
	if err != nil {
		return 0, err
	}

	newInode := layout.Inode{Type: typ}

	dataBitmapBuf, dataBM, err := e.loadDataBitmap(&super)
	if err != nil {
		return 0, err
	}

	var childBlockNum uint32
	if typ == layout.Directory {
		allocated, err := dataBM.Allocate()
		if err != nil {
			return 0, err
		}
		childBlockNum = super.DataRegionAddr + uint32(allocated)
		newInode.Direct[0] = childBlockNum
		newInode.Size = 2 * layout.DirEntByteSize

		selfEntries := []layout.DirEnt{
			layout.NewDirEnt(".", int32(newInum)),
			layout.NewDirEnt("..", int32(parentInodeNumber)),
		}
		block := make([]byte, e.dev.BlockSize())
		copy(block, layout.EncodeDirEnts(selfEntries))
		if err := e.dev.WriteBlock(childBlockNum, block); err != nil {
			return 0, err
		}
	}

	if err := e.appendDirEntry(&super, &parent, dataBM, layout.NewDirEnt(name, int32(newInum))); err != nil {
		return 0, err
	}

	if err := layout.WriteInode(e.dev, &super, newInum, &newInode); err != nil {
		return 0, err
	}
	if err := layout.WriteInode(e.dev, &super, parentInodeNumber, &parent); err != nil {
		return 0, err
	}
	if err := layout.WriteBitmapRegion(e.dev, super.InodeBitmapAddr, super.InodeBitmapLen, inodeBitmapBuf); err != nil {
		return 0, err
	}
	if err := layout.WriteBitmapRegion(e.dev, super.DataBitmapAddr, super.DataBitmapLen, dataBitmapBuf); err != nil {
		return 0, err
	}

	return newInum, nil
}

// findEntry scans dir's content for an entry named name, also returning
// the type of the inode it points to.
func (e *Engine) findEntry(super *layout.Superblock, dir *layout.Inode, name string) (inum int, typ layout.InodeType, found bool, err error) {
	content, err := e.readInodeContent(dir, dir.Size)
	if err != nil {
		return 0, 0, false, err
	}
	for _, entry := range layout.DecodeDirEnts(content) {
		if entry.NameString() != name {
			continue
		}
		childInode, err := e.loadInode(super, int(entry.Inum))
		if err != nil {
			return 0, 0, false, err
		}
		return int(entry.Inum), childInode.Type, true, nil
	}
	return 0, 0, false, nil
}

// appendDirEntry appends entry to dir's content, growing dir by one more
// data block if the entry wouldn't fit in the current last block. dir is
// the caller's working copy: this mutates it in place (Size, and Direct
// if a new block is allocated) and writes the affected data block(s), but
// leaves persisting dir's own inode record to the caller, since the
// caller still has its own writes to make before dir is done changing.
func (e *Engine) appendDirEntry(super *layout.Superblock, dir *layout.Inode, dataBM *bitmap.Allocator, entry layout.DirEnt) error {
	blockSize := e.dev.BlockSize()
	entriesPerBlock := int(blockSize) / layout.DirEntByteSize

	// Index the new entry by entry count, not raw byte offset: this stays
	// correct even when DirEntByteSize doesn't evenly divide blockSize,
	// since dir.Size only ever counts whole entries, never the padding a
	// block's tail might carry.
	entryIndex := int(dir.Size) / layout.DirEntByteSize
	blockIdx := entryIndex / entriesPerBlock
	slot := entryIndex % entriesPerBlock

	if slot == 0 {
		// This entry starts a fresh block the directory hasn't used yet.
		allocated, err := dataBM.Allocate()
		if err != nil {
			return err
		}
		dir.Direct[blockIdx] = super.DataRegionAddr + uint32(allocated)
	}

	blockNum := dir.Direct[blockIdx]
	block := make([]byte, blockSize)
	if err := e.dev.ReadBlock(blockNum, block); err != nil {
		return err
	}
	offset := slot * layout.DirEntByteSize
	copy(block[offset:offset+layout.DirEntByteSize], entry.Encode())
	if err := e.dev.WriteBlock(blockNum, block); err != nil {
		return err
	}

	dir.Size += layout.DirEntByteSize
	return nil
}
