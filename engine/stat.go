package engine

import "github.com/gunrockfs/ufs/layout"

// Stat returns a copy of the inode record for inodeNumber. It fails with
// InvalidInode if inodeNumber is out of range or the record's type is
// neither Directory nor RegularFile. Stat performs no mutation; a type
// check alone suffices here because an allocated inode always carries a
// valid type, and a freed one never does.
func (e *Engine) Stat(inodeNumber int) (layout.Inode, error) {
	super, err := e.readSuperblock()
	if err != nil {
		return layout.Inode{}, err
	}
	return e.loadInode(&super, inodeNumber)
}
