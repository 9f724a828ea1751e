package layout

import "github.com/gunrockfs/ufs/blockdev"

// ReadBitmapRegion reads numBlocks contiguous blocks starting at addr and
// concatenates them into a single byte buffer, block by block.
func ReadBitmapRegion(dev blockdev.Device, addr, numBlocks uint32) ([]byte, error) {
	blockSize := dev.BlockSize()
	buf := make([]byte, uint64(numBlocks)*uint64(blockSize))
	for i := uint32(0); i < numBlocks; i++ {
		chunk := buf[uint64(i)*uint64(blockSize) : uint64(i+1)*uint64(blockSize)]
		if err := dev.ReadBlock(addr+i, chunk); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// WriteBitmapRegion writes buf back out block by block, starting at addr.
// len(buf) must equal numBlocks*blockSize.
func WriteBitmapRegion(dev blockdev.Device, addr, numBlocks uint32, buf []byte) error {
	blockSize := dev.BlockSize()
	for i := uint32(0); i < numBlocks; i++ {
		chunk := buf[uint64(i)*uint64(blockSize) : uint64(i+1)*uint64(blockSize)]
		if err := dev.WriteBlock(addr+i, chunk); err != nil {
			return err
		}
	}
	return nil
}
