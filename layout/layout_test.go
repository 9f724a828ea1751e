package layout_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gunrockfs/ufs/blockdev"
	"github.com/gunrockfs/ufs/layout"
	"github.com/gunrockfs/ufs/testutil"
)

func TestSuperblockRoundTrip(t *testing.T) {
	super := layout.Superblock{
		InodeBitmapAddr: 1,
		InodeBitmapLen:  1,
		DataBitmapAddr:  2,
		DataBitmapLen:   1,
		InodeRegionAddr: 3,
		InodeRegionLen:  4,
		NumInodes:       128,
		NumData:         2000,
		DataRegionAddr:  7,
		DataRegionLen:   2000,
	}

	dev := testutil.NewImage(t, layout.DefaultBlockSize, 16)
	require.NoError(t, super.WriteTo(dev))

	got, err := layout.ReadSuperblock(dev)
	require.NoError(t, err)
	require.Equal(t, super, got)
}

func TestInodeReadWritePatchesInPlace(t *testing.T) {
	dev := testutil.NewImage(t, layout.DefaultBlockSize, 16)
	super := layout.Superblock{InodeRegionAddr: 5, InodeRegionLen: 1, NumInodes: 32}

	k := layout.DefaultBlockSize / layout.InodeByteSize
	require.Greater(t, int(k), 1, "test assumes more than one inode per block")

	first := layout.Inode{Type: layout.RegularFile, Size: 10}
	second := layout.Inode{Type: layout.Directory, Size: 64}

	require.NoError(t, layout.WriteInode(dev, &super, 0, &first))
	require.NoError(t, layout.WriteInode(dev, &super, 1, &second))

	gotFirst, err := layout.ReadInode(dev, &super, 0)
	require.NoError(t, err)
	require.Equal(t, first, gotFirst, "writing inode 1 must not clobber inode 0's record")

	gotSecond, err := layout.ReadInode(dev, &super, 1)
	require.NoError(t, err)
	require.Equal(t, second, gotSecond)
}

func TestDirEntNameStringStopsAtNUL(t *testing.T) {
	d := layout.NewDirEnt("a", 3)
	require.Equal(t, "a", d.NameString())
}

func TestDirEntEncodeDecodeRoundTrip(t *testing.T) {
	entries := []layout.DirEnt{
		layout.NewDirEnt(".", 0),
		layout.NewDirEnt("..", 0),
		layout.NewDirEnt("file.txt", 5),
	}
	buf := layout.EncodeDirEnts(entries)
	require.Len(t, buf, len(entries)*layout.DirEntByteSize)

	decoded := layout.DecodeDirEnts(buf)
	require.Equal(t, entries, decoded)
}

func TestTombstoneToleratedNotProduced(t *testing.T) {
	d := layout.NewDirEnt("x", layout.TombstoneInum)
	require.True(t, d.IsTombstone())
}

var _ blockdev.Device = (*blockdev.ImageDevice)(nil)
