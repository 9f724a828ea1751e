package engine

import (
	"github.com/noxer/bytewriter"

	"github.com/gunrockfs/ufs/bitmap"
	"github.com/gunrockfs/ufs/blockdev"
	"github.com/gunrockfs/ufs/layout"
	"github.com/gunrockfs/ufs/ufserrors"
)

// FormatOptions sizes a brand-new image. NumInodes and NumBlocks are in
// units of inodes and blocks respectively, not bytes.
type FormatOptions struct {
	NumInodes uint32
	NumBlocks uint32
}

// bitmapBlocksNeeded returns the number of whole blocks required to hold a
// bitmap addressing bits bits, rounding up.
func bitmapBlocksNeeded(bits, blockSize uint32) uint32 {
	bytesNeeded := (bits + 7) / 8
	return sizeInBlocks(bytesNeeded, blockSize)
}

// Format lays down a fresh superblock, zeroed allocation bitmaps, a zeroed
// inode table, and a root directory (inode RootInodeNumber, "." and ".."
// both pointing at itself) on dev. dev must have at least opts.NumBlocks
// blocks; none of Stat, Lookup, Read, Write, Create, or Unlink can
// bootstrap the very first image, so something has to.
func Format(dev blockdev.Device, opts FormatOptions) error {
	blockSize := dev.BlockSize()

	if opts.NumInodes == 0 {
		return ufserrors.New(ufserrors.InvalidSize).WithMessage("NumInodes must be non-zero")
	}

	inodeBitmapLen := bitmapBlocksNeeded(opts.NumInodes, blockSize)
	inodeRegionLen := sizeInBlocks(opts.NumInodes*layout.InodeByteSize, blockSize)

	// Everything before the data region except the data bitmap: superblock,
	// inode bitmap, inode table. The data bitmap's length is settled below.
	reserved := 1 + inodeBitmapLen + inodeRegionLen
	if opts.NumBlocks <= reserved {
		return ufserrors.New(ufserrors.InvalidSize).
			WithMessage("NumBlocks too small to hold the reserved regions")
	}

	// The data bitmap's own size depends on how many data blocks remain,
	// which in turn shrinks by however many blocks the data bitmap itself
	// occupies. Converge by fixed point: the bitmap never exceeds a
	// handful of blocks for any sane geometry, so a couple of iterations
	// always settles.
	dataBitmapLen := uint32(1)
	for {
		if opts.NumBlocks <= reserved+dataBitmapLen {
			return ufserrors.New(ufserrors.InvalidSize).
				WithMessage("NumBlocks leaves no room for data blocks")
		}
		numData := opts.NumBlocks - reserved - dataBitmapLen
		needed := bitmapBlocksNeeded(numData, blockSize)
		if needed == dataBitmapLen {
			break
		}
		dataBitmapLen = needed
	}
	numData := opts.NumBlocks - reserved - dataBitmapLen

	super := layout.Superblock{
		InodeBitmapAddr: 1,
		InodeBitmapLen:  inodeBitmapLen,
		DataBitmapAddr:  1 + inodeBitmapLen,
		DataBitmapLen:   dataBitmapLen,
		InodeRegionAddr: 1 + inodeBitmapLen + dataBitmapLen,
		InodeRegionLen:  inodeRegionLen,
		NumInodes:       opts.NumInodes,
		NumData:         numData,
		DataRegionAddr:  reserved + dataBitmapLen,
		DataRegionLen:   numData,
	}

	if err := dev.BeginTransaction(); err != nil {
		return err
	}

	if err := formatInTransaction(dev, &super); err != nil {
		_ = dev.Rollback()
		return err
	}
	return dev.Commit()
}

func formatInTransaction(dev blockdev.Device, super *layout.Superblock) error {
	blockSize := dev.BlockSize()

	if err := super.WriteTo(dev); err != nil {
		return err
	}

	zeroBlock := make([]byte, blockSize)
	writeZeroRegion := func(addr, length uint32) error {
		for i := uint32(0); i < length; i++ {
			if err := dev.WriteBlock(addr+i, zeroBlock); err != nil {
				return err
			}
		}
		return nil
	}

	inodeBitmapBuf := make([]byte, super.InodeBitmapLen*blockSize)
	dataBitmapBuf := make([]byte, super.DataBitmapLen*blockSize)
	inodeBM := bitmap.Wrap(inodeBitmapBuf, int(super.NumInodes))
	dataBM := bitmap.Wrap(dataBitmapBuf, int(super.NumData))

	if err := writeZeroRegion(super.InodeRegionAddr, super.InodeRegionLen); err != nil {
		return err
	}

	rootInum, err := inodeBM.Allocate()
	if err != nil {
		return err
	}
	if rootInum != RootInodeNumber {
		return ufserrors.New(ufserrors.InvalidInode).
			WithMessage("root inode did not land on inode 0")
	}

	rootBlockIdx, err := dataBM.Allocate()
	if err != nil {
		return err
	}
	rootBlockNum := super.DataRegionAddr + uint32(rootBlockIdx)

	selfEntries := []layout.DirEnt{
		layout.NewDirEnt(".", int32(RootInodeNumber)),
		layout.NewDirEnt("..", int32(RootInodeNumber)),
	}
	rootBlock := make([]byte, blockSize)
	writer := bytewriter.New(rootBlock)
	if _, err := writer.Write(layout.EncodeDirEnts(selfEntries)); err != nil {
		return err
	}
	if err := dev.WriteBlock(rootBlockNum, rootBlock); err != nil {
		return err
	}

	rootInode := layout.Inode{
		Type: layout.Directory,
		Size: 2 * layout.DirEntByteSize,
	}
	rootInode.Direct[0] = rootBlockNum
	if err := layout.WriteInode(dev, super, RootInodeNumber, &rootInode); err != nil {
		return err
	}

	if err := layout.WriteBitmapRegion(dev, super.InodeBitmapAddr, super.InodeBitmapLen, inodeBitmapBuf); err != nil {
		return err
	}
	return layout.WriteBitmapRegion(dev, super.DataBitmapAddr, super.DataBitmapLen, dataBitmapBuf)
}
