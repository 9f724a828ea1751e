package engine

import "github.com/gunrockfs/ufs/ufserrors"

// Read copies up to size bytes of inodeNumber's content into buffer,
// starting at offset 0, and returns the number of bytes copied.
//
// Effective length is min(size, inode.Size), further clamped to
// DirectPtrs*blockSize. Iteration over direct pointers stops at the first
// zero pointer or once the effective length is reached; reading past
// inode.Size is silently truncated rather than treated as an error.
func (e *Engine) Read(inodeNumber int, buffer []byte, size int) (int, error) {
	if size < 0 {
		return 0, ufserrors.New(ufserrors.InvalidSize).WithMessage("size must be non-negative")
	}

	super, err := e.readSuperblock()
	if err != nil {
		return 0, err
	}
	inode, err := e.loadInode(&super, inodeNumber)
	if err != nil {
		return 0, err
	}

	content, err := e.readInodeContent(&inode, uint32(size))
	if err != nil {
		return 0, err
	}
	return copy(buffer, content), nil
}
