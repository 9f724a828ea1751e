// Package layout is the on-disk layout codec: it knows how the superblock,
// allocation bitmaps, inode table, and directory entries are packed into
// block_size-aligned byte buffers, and serializes/deserializes them field
// by field rather than relying on Go's own struct layout, which is free to
// add padding and varies by platform.
package layout

import (
	"encoding/binary"

	"github.com/gunrockfs/ufs/blockdev"
)

// DefaultBlockSize is the historical UFS block size; block devices may use
// a different size, but layout math always derives from dev.BlockSize().
const DefaultBlockSize = 4096

// superblockFieldCount is the number of uint32 fields packed into block 0,
// in their declared on-disk order.
const superblockFieldCount = 10

// SuperblockByteSize is the packed, little-endian size of a Superblock.
const SuperblockByteSize = superblockFieldCount * 4

// Superblock is the immutable (after creation) layout descriptor stored at
// block 0.
type Superblock struct {
	InodeBitmapAddr uint32
	InodeBitmapLen  uint32
	DataBitmapAddr  uint32
	DataBitmapLen   uint32
	InodeRegionAddr uint32
	InodeRegionLen  uint32

	// Derived capacities, persisted alongside the base fields so readers
	// never have to recompute them from block_size assumptions.
	NumInodes      uint32
	NumData        uint32
	DataRegionAddr uint32
	DataRegionLen  uint32
}

// Encode packs the superblock into a block_size-byte buffer, zero-padded
// past SuperblockByteSize.
func (s *Superblock) Encode(blockSize uint32) []byte {
	buf := make([]byte, blockSize)
	fields := [superblockFieldCount]uint32{
		s.InodeBitmapAddr,
		s.InodeBitmapLen,
		s.DataBitmapAddr,
		s.DataBitmapLen,
		s.InodeRegionAddr,
		s.InodeRegionLen,
		s.NumInodes,
		s.NumData,
		s.DataRegionAddr,
		s.DataRegionLen,
	}
	for i, v := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], v)
	}
	return buf
}

// DecodeSuperblock unpacks a Superblock from a block_size-byte buffer
// previously produced by Encode.
func DecodeSuperblock(buf []byte) Superblock {
	read := func(i int) uint32 {
		return binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return Superblock{
		InodeBitmapAddr: read(0),
		InodeBitmapLen:  read(1),
		DataBitmapAddr:  read(2),
		DataBitmapLen:   read(3),
		InodeRegionAddr: read(4),
		InodeRegionLen:  read(5),
		NumInodes:       read(6),
		NumData:         read(7),
		DataRegionAddr:  read(8),
		DataRegionLen:   read(9),
	}
}

// ReadSuperblock reads and decodes block 0.
func ReadSuperblock(dev blockdev.Device) (Superblock, error) {
	buf := make([]byte, dev.BlockSize())
	if err := dev.ReadBlock(0, buf); err != nil {
		return Superblock{}, err
	}
	return DecodeSuperblock(buf), nil
}

// WriteTo encodes and writes the superblock to block 0.
func (s *Superblock) WriteTo(dev blockdev.Device) error {
	return dev.WriteBlock(0, s.Encode(dev.BlockSize()))
}
