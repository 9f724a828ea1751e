// Package blockdev implements the transactional block device the
// filesystem engine is layered over. The engine treats this purely as an
// external collaborator behind the Device interface; ImageDevice is this
// module's own concrete implementation, used by the CLIs and by every
// test fixture.
package blockdev

import (
	"fmt"
	"io"

	"github.com/boljen/go-bitmap"
)

// Device is the block-level contract the filesystem engine is built
// against: single-block reads/writes, bracketed by a transaction that
// either commits as a whole or is rolled back as a whole.
type Device interface {
	BlockSize() uint32
	NumBlocks() uint32
	ReadBlock(index uint32, buf []byte) error
	WriteBlock(index uint32, buf []byte) error
	BeginTransaction() error
	Commit() error
	Rollback() error
}

// ImageDevice implements Device over any io.ReadWriteSeeker — a real
// *os.File for the CLIs, or an in-memory buffer for tests. It keeps an
// overlay of the whole image in `data`, tracked by the same
// loaded/dirty-bitmap pair the teacher's blockcache.BlockCache uses.
//
// Outside a transaction, writes go straight through to the backing stream.
// Inside one, writes land only in the overlay (marked dirty) until Commit
// flushes them or Rollback discards them by reloading from the stream.
type ImageDevice struct {
	stream    io.ReadWriteSeeker
	blockSize uint32
	numBlocks uint32

	data          []byte
	loaded        bitmap.Bitmap
	dirty         bitmap.Bitmap
	inTransaction bool
}

// New wraps stream as a Device with the given block geometry.
func New(stream io.ReadWriteSeeker, blockSize, numBlocks uint32) *ImageDevice {
	return &ImageDevice{
		stream:    stream,
		blockSize: blockSize,
		numBlocks: numBlocks,
		data:      make([]byte, uint64(blockSize)*uint64(numBlocks)),
		loaded:    bitmap.New(int(numBlocks)),
		dirty:     bitmap.New(int(numBlocks)),
	}
}

func (d *ImageDevice) BlockSize() uint32 { return d.blockSize }
func (d *ImageDevice) NumBlocks() uint32 { return d.numBlocks }

func (d *ImageDevice) checkBounds(index uint32, bufLen int) error {
	if index >= d.numBlocks {
		return fmt.Errorf("block %d out of range [0, %d)", index, d.numBlocks)
	}
	if uint32(bufLen) != d.blockSize {
		return fmt.Errorf("buffer must be exactly %d bytes, got %d", d.blockSize, bufLen)
	}
	return nil
}

func (d *ImageDevice) slice(index uint32) []byte {
	start := uint64(index) * uint64(d.blockSize)
	return d.data[start : start+uint64(d.blockSize)]
}

// loadFromStream reads block index directly from the backing stream into
// the overlay, marking it loaded and clean.
func (d *ImageDevice) loadFromStream(index uint32) error {
	offset := int64(index) * int64(d.blockSize)
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(d.stream, d.slice(index)); err != nil {
		return err
	}
	d.loaded.Set(int(index), true)
	d.dirty.Set(int(index), false)
	return nil
}

// flushToStream writes the overlay's copy of block index to the backing
// stream.
func (d *ImageDevice) flushToStream(index uint32) error {
	offset := int64(index) * int64(d.blockSize)
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := d.stream.Write(d.slice(index)); err != nil {
		return err
	}
	return nil
}

// ReadBlock fills buf with the current contents of block index, loading it
// from the backing stream on first access.
func (d *ImageDevice) ReadBlock(index uint32, buf []byte) error {
	if err := d.checkBounds(index, len(buf)); err != nil {
		return err
	}
	if !d.loaded.Get(int(index)) {
		if err := d.loadFromStream(index); err != nil {
			return err
		}
	}
	copy(buf, d.slice(index))
	return nil
}

// WriteBlock persists buf as the new contents of block index. Inside a
// transaction this only touches the in-memory overlay; outside one it
// writes straight through to the backing stream.
func (d *ImageDevice) WriteBlock(index uint32, buf []byte) error {
	if err := d.checkBounds(index, len(buf)); err != nil {
		return err
	}
	copy(d.slice(index), buf)
	d.loaded.Set(int(index), true)

	if d.inTransaction {
		d.dirty.Set(int(index), true)
		return nil
	}
	return d.flushToStream(index)
}

// BeginTransaction opens a new transaction. It's a programmer error to
// call it while one is already open.
func (d *ImageDevice) BeginTransaction() error {
	if d.inTransaction {
		return fmt.Errorf("transaction already in progress")
	}
	d.inTransaction = true
	return nil
}

// Commit flushes every block written since BeginTransaction to the backing
// stream and closes the transaction.
func (d *ImageDevice) Commit() error {
	if !d.inTransaction {
		return fmt.Errorf("no transaction in progress")
	}
	for i := uint32(0); i < d.numBlocks; i++ {
		if !d.dirty.Get(int(i)) {
			continue
		}
		if err := d.flushToStream(i); err != nil {
			return err
		}
		d.dirty.Set(int(i), false)
	}
	d.inTransaction = false
	return nil
}

// Rollback discards every block written since BeginTransaction, reloading
// each from the backing stream, and closes the transaction.
func (d *ImageDevice) Rollback() error {
	if !d.inTransaction {
		return fmt.Errorf("no transaction in progress")
	}
	for i := uint32(0); i < d.numBlocks; i++ {
		if !d.dirty.Get(int(i)) {
			continue
		}
		d.loaded.Set(int(i), false)
		if err := d.loadFromStream(i); err != nil {
			return err
		}
		d.dirty.Set(int(i), false)
	}
	d.inTransaction = false
	return nil
}
