// Package diskimage opens an existing on-disk image file as a
// blockdev.Device for the ds3* command-line tools, the same role
// Disk plays for the original command-line tools this spec was
// distilled from.
package diskimage

import (
	"fmt"
	"os"

	"github.com/gunrockfs/ufs/blockdev"
	"github.com/gunrockfs/ufs/layout"
)

// Open opens path read-write and wraps it as a blockdev.Device using
// layout.DefaultBlockSize, deriving the block count from the file's
// current size. The caller must Close the returned file once done.
func Open(path string) (*blockdev.ImageDevice, *os.File, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("statting %s: %w", path, err)
	}

	size := info.Size()
	if size%layout.DefaultBlockSize != 0 {
		file.Close()
		return nil, nil, fmt.Errorf(
			"%s is not a multiple of the block size (%d bytes)", path, layout.DefaultBlockSize)
	}

	numBlocks := uint32(size / layout.DefaultBlockSize)
	dev := blockdev.New(file, layout.DefaultBlockSize, numBlocks)
	return dev, file, nil
}
