// Package testutil provides in-memory disk image fixtures for tests,
// following the teacher's testing/images.go: a fixed-size buffer wrapped
// as an io.ReadWriteSeeker via bytesextra, with no backing file.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/gunrockfs/ufs/blockdev"
	"github.com/gunrockfs/ufs/engine"
)

// NewImage allocates a zero-filled, fixed-size in-memory image of
// numBlocks blocks of blockSize bytes each, and returns it as a Device.
func NewImage(t *testing.T, blockSize, numBlocks uint32) *blockdev.ImageDevice {
	t.Helper()
	require.Greater(t, numBlocks, uint32(0), "image must have at least one block")

	buf := make([]byte, uint64(blockSize)*uint64(numBlocks))
	stream := bytesextra.NewReadWriteSeeker(buf)
	return blockdev.New(stream, blockSize, numBlocks)
}

// NewFormattedImage builds a fresh image and formats it with numInodes
// inodes, ready for engine operations to run against.
func NewFormattedImage(t *testing.T, blockSize, numBlocks, numInodes uint32) *blockdev.ImageDevice {
	t.Helper()
	dev := NewImage(t, blockSize, numBlocks)
	require.NoError(t, engine.Format(dev, engine.FormatOptions{
		NumInodes: numInodes,
		NumBlocks: numBlocks,
	}))
	return dev
}
