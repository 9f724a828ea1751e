package engine

import (
	"github.com/gunrockfs/ufs/bitmap"
	"github.com/gunrockfs/ufs/layout"
	"github.com/gunrockfs/ufs/ufserrors"
)

// Unlink removes the directory entry named name from parentInodeNumber and
// frees the target inode and all of its data blocks. Removal swaps the
// matched entry with the directory's last entry rather than shifting
// everything after it down by one, so lookup order after Unlink is not the
// original insertion order.
func (e *Engine) Unlink(parentInodeNumber int, name string) (int, error) {
	if len(name) == 0 || len(name) >= layout.DirEntNameSize {
		return 0, ufserrors.New(ufserrors.InvalidName)
	}
	if name == "." || name == ".." {
		return 0, ufserrors.New(ufserrors.UnlinkNotAllowed)
	}

	super, err := e.readSuperblock()
	if err != nil {
		return 0, err
	}
	parent, err := e.loadAllocatedDirectory(&super, parentInodeNumber)
	if err != nil {
		return 0, err
	}

	content, err := e.readInodeContent(&parent, parent.Size)
	if err != nil {
		return 0, err
	}
	entries := layout.DecodeDirEnts(content)

	targetIdx := -1
	for i, entry := range entries {
		if entry.NameString() == name {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return 0, ufserrors.New(ufserrors.NotFound).WithMessage("no entry named " + name)
	}

	targetInum := int(entries[targetIdx].Inum)
	target, err := e.loadInode(&super, targetInum)
	if err != nil {
		return 0, err
	}
	if target.Type == layout.Directory && target.Size > 2*layout.DirEntByteSize {
		return 0, ufserrors.New(ufserrors.DirectoryNotEmpty)
	}

	dataBitmapBuf, dataBM, err := e.loadDataBitmap(&super)
	if err != nil {
		return 0, err
	}
	inodeBitmapBuf, inodeBM, err := e.loadInodeBitmap(&super)
	if err != nil {
		return 0, err
	}

	targetBlocks := int(sizeInBlocks(target.Size, e.dev.BlockSize()))
	for i := 0; i < targetBlocks; i++ {
		dataBM.Free(int(target.Direct[i] - super.DataRegionAddr))
		target.Direct[i] = 0
	}
	target.Size = 0
	target.Type = 0
	inodeBM.Free(targetInum)

	if err := e.removeDirEntry(&super, &parent, dataBM, entries, targetIdx); err != nil {
		return 0, err
	}

	if err := layout.WriteInode(e.dev, &super, parentInodeNumber, &parent); err != nil {
		return 0, err
	}
	if err := layout.WriteInode(e.dev, &super, targetInum, &target); err != nil {
		return 0, err
	}
	if err := layout.WriteBitmapRegion(e.dev, super.DataBitmapAddr, super.DataBitmapLen, dataBitmapBuf); err != nil {
		return 0, err
	}
	if err := layout.WriteBitmapRegion(e.dev, super.InodeBitmapAddr, super.InodeBitmapLen, inodeBitmapBuf); err != nil {
		return 0, err
	}

	return 0, nil
}

// removeDirEntry implements the swap-with-last removal: the entry at
// targetIdx is overwritten with the directory's last entry, dir shrinks by
// one entry, and if that empties the data block that held the last entry,
// the block is freed and dir's pointer to it zeroed.
func (e *Engine) removeDirEntry(super *layout.Superblock, dir *layout.Inode, dataBM *bitmap.Allocator, entries []layout.DirEnt, targetIdx int) error {
	blockSize := e.dev.BlockSize()
	entriesPerBlock := int(blockSize) / layout.DirEntByteSize
	lastIdx := len(entries) - 1

	if targetIdx != lastIdx {
		lastEntry := entries[lastIdx]
		blockIdx := targetIdx / entriesPerBlock
		slot := targetIdx % entriesPerBlock
		blockNum := dir.Direct[blockIdx]

		block := make([]byte, blockSize)
		if err := e.dev.ReadBlock(blockNum, block); err != nil {
			return err
		}
		offset := slot * layout.DirEntByteSize
		copy(block[offset:offset+layout.DirEntByteSize], lastEntry.Encode())
		if err := e.dev.WriteBlock(blockNum, block); err != nil {
			return err
		}
	}

	lastBlockIdx := lastIdx / entriesPerBlock
	if lastIdx%entriesPerBlock == 0 {
		dataBM.Free(int(dir.Direct[lastBlockIdx] - super.DataRegionAddr))
		dir.Direct[lastBlockIdx] = 0
	}

	dir.Size -= layout.DirEntByteSize
	return nil
}
