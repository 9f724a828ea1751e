package engine

import (
	"github.com/gunrockfs/ufs/layout"
	"github.com/gunrockfs/ufs/ufserrors"
)

// Lookup scans parentInodeNumber's directory content for an entry whose
// name exactly matches name (byte comparison up to NUL) and returns its
// inode number. An empty name is a normal miss, not a separate error: no
// directory entry is ever created with an empty name, so there's nothing
// exceptional about failing to find one.
func (e *Engine) Lookup(parentInodeNumber int, name string) (int, error) {
	parent, err := e.Stat(parentInodeNumber)
	if err != nil {
		return 0, ufserrors.New(ufserrors.InvalidInode).WrapError(err)
	}
	if parent.Type != layout.Directory {
		return 0, ufserrors.NewWithMessage(ufserrors.InvalidInode, "parent is not a directory")
	}

	buffer := make([]byte, parent.Size)
	n, err := e.Read(parentInodeNumber, buffer, int(parent.Size))
	if err != nil {
		return 0, err
	}

	for _, entry := range layout.DecodeDirEnts(buffer[:n]) {
		if entry.NameString() == name {
			return int(entry.Inum), nil
		}
	}
	return 0, ufserrors.NewWithMessage(ufserrors.NotFound, "no entry named "+name)
}
