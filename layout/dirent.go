package layout

import (
	"bytes"
	"encoding/binary"
)

// DirEntNameSize is the fixed size of a directory entry's name field,
// including its terminating NUL; names may be at most DirEntNameSize-1
// bytes.
const DirEntNameSize = 28

// DirEntByteSize is the packed size of one directory entry: the name field
// plus a signed 32-bit inode number.
const DirEntByteSize = DirEntNameSize + 4

// TombstoneInum is never produced by this implementation; it's recognized
// on read for forward compatibility only, in case some other writer of
// this format ever marks entries by tombstoning instead of swap-removal.
const TombstoneInum int32 = -1

// DirEnt is one fixed-size directory entry: a NUL-padded name and the
// inode number it refers to.
type DirEnt struct {
	Name [DirEntNameSize]byte
	Inum int32
}

// NewDirEnt builds a DirEnt from a Go string, zero-padding the name field.
// The caller guarantees len(name) < DirEntNameSize.
func NewDirEnt(name string, inum int32) DirEnt {
	var d DirEnt
	copy(d.Name[:], name)
	d.Inum = inum
	return d
}

// NameString returns the entry's name as a Go string, stopping at the
// first NUL byte.
func (d *DirEnt) NameString() string {
	if i := bytes.IndexByte(d.Name[:], 0); i >= 0 {
		return string(d.Name[:i])
	}
	return string(d.Name[:])
}

// IsTombstone reports whether this entry is a tombstone marker. This
// implementation never produces one, but tolerates it on read.
func (d *DirEnt) IsTombstone() bool {
	return d.Inum == TombstoneInum
}

// Encode packs the entry into a DirEntByteSize buffer.
func (d *DirEnt) Encode() []byte {
	buf := make([]byte, DirEntByteSize)
	copy(buf[:DirEntNameSize], d.Name[:])
	binary.LittleEndian.PutUint32(buf[DirEntNameSize:], uint32(d.Inum))
	return buf
}

// DecodeDirEnt unpacks a DirEnt from a DirEntByteSize buffer.
func DecodeDirEnt(buf []byte) DirEnt {
	var d DirEnt
	copy(d.Name[:], buf[:DirEntNameSize])
	d.Inum = int32(binary.LittleEndian.Uint32(buf[DirEntNameSize:]))
	return d
}

// DecodeDirEnts splits buf into a slice of directory entries; len(buf) must
// be a multiple of DirEntByteSize.
func DecodeDirEnts(buf []byte) []DirEnt {
	count := len(buf) / DirEntByteSize
	entries := make([]DirEnt, count)
	for i := 0; i < count; i++ {
		entries[i] = DecodeDirEnt(buf[i*DirEntByteSize : (i+1)*DirEntByteSize])
	}
	return entries
}

// EncodeDirEnts packs a slice of entries back into a flat byte buffer.
func EncodeDirEnts(entries []DirEnt) []byte {
	buf := make([]byte, len(entries)*DirEntByteSize)
	for i := range entries {
		copy(buf[i*DirEntByteSize:(i+1)*DirEntByteSize], entries[i].Encode())
	}
	return buf
}
