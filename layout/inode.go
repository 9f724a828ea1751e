package layout

import (
	"encoding/binary"

	"github.com/gunrockfs/ufs/blockdev"
)

// DirectPtrs is the fixed number of direct block pointers per inode. Files
// are bounded by this; there are no indirect blocks.
const DirectPtrs = 30

// InodeType is the packed, 32-bit on-disk inode type tag. Any value other
// than Directory or RegularFile denotes an unused/free inode record.
type InodeType uint32

const (
	Directory   InodeType = 1
	RegularFile InodeType = 2
)

// IsValid reports whether t is one of the two allocated inode types.
func (t InodeType) IsValid() bool {
	return t == Directory || t == RegularFile
}

// InodeByteSize is the packed little-endian size of one Inode record:
// a 4-byte type, a 4-byte size, and DirectPtrs 4-byte block numbers.
const InodeByteSize = 4 + 4 + DirectPtrs*4

// Inode is the fixed-layout record describing one file or directory.
type Inode struct {
	Type   InodeType
	Size   uint32
	Direct [DirectPtrs]uint32
}

// Encode packs the inode into a InodeByteSize buffer.
func (ino *Inode) Encode() []byte {
	buf := make([]byte, InodeByteSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(ino.Type))
	binary.LittleEndian.PutUint32(buf[4:8], ino.Size)
	for i, ptr := range ino.Direct {
		off := 8 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], ptr)
	}
	return buf
}

// DecodeInode unpacks an Inode from an InodeByteSize buffer.
func DecodeInode(buf []byte) Inode {
	var ino Inode
	ino.Type = InodeType(binary.LittleEndian.Uint32(buf[0:4]))
	ino.Size = binary.LittleEndian.Uint32(buf[4:8])
	for i := range ino.Direct {
		off := 8 + i*4
		ino.Direct[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	return ino
}

// inodesPerBlock returns K = floor(blockSize / InodeByteSize). InodeByteSize
// need not divide blockSize evenly; any leftover bytes at the end of each
// inode-table block simply go unused.
func inodesPerBlock(blockSize uint32) uint32 {
	return blockSize / InodeByteSize
}

// inodeLocation returns the absolute block index (InodeRegionAddr plus
// inum/K) and byte offset within that block for inode number inum.
func inodeLocation(super *Superblock, blockSize uint32, inum int) (blockIndex uint32, offset uint32) {
	k := inodesPerBlock(blockSize)
	blockIndex = super.InodeRegionAddr + uint32(inum)/k
	offset = (uint32(inum) % k) * InodeByteSize
	return
}

// ReadInode loads a single inode record, patched in from its containing
// block. The caller guarantees 0 <= inum < super.NumInodes.
func ReadInode(dev blockdev.Device, super *Superblock, inum int) (Inode, error) {
	blockSize := dev.BlockSize()
	blockIndex, offset := inodeLocation(super, blockSize, inum)

	block := make([]byte, blockSize)
	if err := dev.ReadBlock(blockIndex, block); err != nil {
		return Inode{}, err
	}
	return DecodeInode(block[offset : offset+InodeByteSize]), nil
}

// WriteInode reads the block containing inum, patches in the record at its
// computed offset, and writes the block back — never clobbering neighbor
// inodes packed into the same block.
func WriteInode(dev blockdev.Device, super *Superblock, inum int, inode *Inode) error {
	blockSize := dev.BlockSize()
	blockIndex, offset := inodeLocation(super, blockSize, inum)

	block := make([]byte, blockSize)
	if err := dev.ReadBlock(blockIndex, block); err != nil {
		return err
	}
	copy(block[offset:offset+InodeByteSize], inode.Encode())
	return dev.WriteBlock(blockIndex, block)
}
