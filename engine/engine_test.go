package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gunrockfs/ufs/engine"
	"github.com/gunrockfs/ufs/layout"
	"github.com/gunrockfs/ufs/testutil"
	"github.com/gunrockfs/ufs/ufserrors"
)

func newFS(t *testing.T) *engine.Engine {
	t.Helper()
	dev := testutil.NewFormattedImage(t, 512, 64, 16)
	return engine.New(dev)
}

func requireKind(t *testing.T, err error, kind ufserrors.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var uerr *ufserrors.Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, kind, uerr.Kind())
}

func TestFormatProducesRootDirectory(t *testing.T) {
	e := newFS(t)

	root, err := e.Stat(engine.RootInodeNumber)
	require.NoError(t, err)
	assert.Equal(t, layout.Directory, root.Type)
	assert.Equal(t, uint32(2*layout.DirEntByteSize), root.Size)

	self, err := e.Lookup(engine.RootInodeNumber, ".")
	require.NoError(t, err)
	assert.Equal(t, engine.RootInodeNumber, self)

	parent, err := e.Lookup(engine.RootInodeNumber, "..")
	require.NoError(t, err)
	assert.Equal(t, engine.RootInodeNumber, parent)
}

func TestCreateFileThenLookupAndStat(t *testing.T) {
	e := newFS(t)

	inum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "hello.txt")
	require.NoError(t, err)

	found, err := e.Lookup(engine.RootInodeNumber, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, inum, found)

	stat, err := e.Stat(inum)
	require.NoError(t, err)
	assert.Equal(t, layout.RegularFile, stat.Type)
	assert.Equal(t, uint32(0), stat.Size)
}

func TestCreateIsIdempotentForSameType(t *testing.T) {
	e := newFS(t)

	first, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "a")
	require.NoError(t, err)

	second, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "a")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCreateFailsWithDifferentTypeSameName(t *testing.T) {
	e := newFS(t)

	_, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "a")
	require.NoError(t, err)

	_, err = e.Create(engine.RootInodeNumber, layout.Directory, "a")
	requireKind(t, err, ufserrors.InvalidType)
}

func TestCreateRejectsInvalidName(t *testing.T) {
	e := newFS(t)

	_, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "")
	requireKind(t, err, ufserrors.InvalidName)
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	e := newFS(t)
	inum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "f")
	require.NoError(t, err)

	payload := []byte("the quick brown fox jumps over the lazy dog")
	n, err := e.Write(inum, payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = e.Read(inum, buf, len(payload))
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf[:n])
}

func TestReadClampsToInodeSize(t *testing.T) {
	e := newFS(t)
	inum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "f")
	require.NoError(t, err)

	payload := []byte("short")
	_, err = e.Write(inum, payload, len(payload))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	n, err := e.Read(inum, buf, len(buf))
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf[:n])
}

func TestWriteExactlyAtMaxDirectSizeSucceeds(t *testing.T) {
	dev := testutil.NewFormattedImage(t, 512, 200, 16)
	e := engine.New(dev)

	inum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "big")
	require.NoError(t, err)

	maxSize := layout.DirectPtrs * 512
	payload := make([]byte, maxSize)
	for i := range payload {
		payload[i] = byte(i)
	}

	n, err := e.Write(inum, payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, maxSize, n)

	_, err = e.Write(inum, payload, maxSize+1)
	requireKind(t, err, ufserrors.InvalidSize)
}

func TestWriteShrinkFreesSurplusBlocks(t *testing.T) {
	dev := testutil.NewFormattedImage(t, 512, 64, 16)
	e := engine.New(dev)

	inum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "f")
	require.NoError(t, err)

	big := make([]byte, 1500)
	_, err = e.Write(inum, big, len(big))
	require.NoError(t, err)

	small := []byte("tiny")
	n, err := e.Write(inum, small, len(small))
	require.NoError(t, err)
	assert.Equal(t, len(small), n)

	stat, err := e.Stat(inum)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(small)), stat.Size)
	for _, ptr := range stat.Direct[1:] {
		assert.Equal(t, uint32(0), ptr)
	}
}

func TestUnlinkRemovesEntryAndFreesInode(t *testing.T) {
	e := newFS(t)
	inum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "f")
	require.NoError(t, err)

	_, err = e.Unlink(engine.RootInodeNumber, "f")
	require.NoError(t, err)

	_, err = e.Lookup(engine.RootInodeNumber, "f")
	requireKind(t, err, ufserrors.NotFound)

	_, err = e.Stat(inum)
	requireKind(t, err, ufserrors.InvalidInode)
}

func TestUnlinkRejectsDotAndDotDot(t *testing.T) {
	e := newFS(t)

	_, err := e.Unlink(engine.RootInodeNumber, ".")
	requireKind(t, err, ufserrors.UnlinkNotAllowed)

	_, err = e.Unlink(engine.RootInodeNumber, "..")
	requireKind(t, err, ufserrors.UnlinkNotAllowed)
}

func TestUnlinkNonEmptyDirectoryFails(t *testing.T) {
	e := newFS(t)

	dirInum, err := e.Create(engine.RootInodeNumber, layout.Directory, "sub")
	require.NoError(t, err)
	_, err = e.Create(dirInum, layout.RegularFile, "child")
	require.NoError(t, err)

	_, err = e.Unlink(engine.RootInodeNumber, "sub")
	requireKind(t, err, ufserrors.DirectoryNotEmpty)
}

func TestUnlinkSwapsWithLastEntry(t *testing.T) {
	e := newFS(t)

	for _, name := range []string{"a", "b", "c"} {
		_, err := e.Create(engine.RootInodeNumber, layout.RegularFile, name)
		require.NoError(t, err)
	}

	_, err := e.Unlink(engine.RootInodeNumber, "a")
	require.NoError(t, err)

	// "b" and "c" must both still resolve, regardless of slot order after
	// the swap-with-last removal.
	for _, name := range []string{"b", "c"} {
		_, err := e.Lookup(engine.RootInodeNumber, name)
		require.NoError(t, err, "lookup of %s should still succeed", name)
	}

	_, err = e.Lookup(engine.RootInodeNumber, "a")
	requireKind(t, err, ufserrors.NotFound)

	// Root held [., .., a, b, c]; removing "a" moves the last entry "c"
	// into its slot.
	root, err := e.Stat(engine.RootInodeNumber)
	require.NoError(t, err)
	buf := make([]byte, root.Size)
	n, err := e.Read(engine.RootInodeNumber, buf, len(buf))
	require.NoError(t, err)
	entries := layout.DecodeDirEnts(buf[:n])
	require.Len(t, entries, 4)
	assert.Equal(t, "c", entries[2].NameString())
	assert.Equal(t, "b", entries[3].NameString())
}

func TestUnlinkNotFound(t *testing.T) {
	e := newFS(t)
	_, err := e.Unlink(engine.RootInodeNumber, "nope")
	requireKind(t, err, ufserrors.NotFound)
}

func TestLookupMissReturnsNotFound(t *testing.T) {
	e := newFS(t)
	_, err := e.Lookup(engine.RootInodeNumber, "nope")
	requireKind(t, err, ufserrors.NotFound)
}

func TestLookupOnNonDirectoryFails(t *testing.T) {
	e := newFS(t)
	inum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "f")
	require.NoError(t, err)

	_, err = e.Lookup(inum, "anything")
	requireKind(t, err, ufserrors.InvalidInode)
}

func TestStatOnOutOfRangeInodeFails(t *testing.T) {
	e := newFS(t)
	_, err := e.Stat(999)
	requireKind(t, err, ufserrors.InvalidInode)
}

func TestStatOnUnallocatedInodeFails(t *testing.T) {
	e := newFS(t)
	_, err := e.Stat(5)
	requireKind(t, err, ufserrors.InvalidInode)
}

func TestCreateFailsWhenInodeBitmapExhausted(t *testing.T) {
	dev := testutil.NewFormattedImage(t, 512, 64, 2)
	e := engine.New(dev)

	// Inode 0 (root) is already allocated; only one inode slot remains.
	_, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "a")
	require.NoError(t, err)

	_, err = e.Create(engine.RootInodeNumber, layout.RegularFile, "b")
	requireKind(t, err, ufserrors.NoSpace)
}

func TestDirectoryGrowsAcrossMultipleDataBlocks(t *testing.T) {
	dev := testutil.NewFormattedImage(t, 512, 200, 64)
	e := engine.New(dev)

	entriesPerBlock := 512 / layout.DirEntByteSize
	total := entriesPerBlock + 3

	names := make([]string, 0, total)
	for i := 0; i < total; i++ {
		name := "f" + string(rune('a'+i%26)) + string(rune('0'+(i/26)%10))
		names = append(names, name)
		_, err := e.Create(engine.RootInodeNumber, layout.RegularFile, name)
		require.NoError(t, err)
	}

	for _, name := range names {
		_, err := e.Lookup(engine.RootInodeNumber, name)
		require.NoError(t, err, "lookup of %s should succeed", name)
	}

	root, err := e.Stat(engine.RootInodeNumber)
	require.NoError(t, err)
	assert.NotEqual(t, uint32(0), root.Direct[1], "directory should have spilled into a second block")
}

func TestRollbackDiscardsUncommittedWrites(t *testing.T) {
	dev := testutil.NewFormattedImage(t, 512, 64, 16)
	e := engine.New(dev)

	require.NoError(t, dev.BeginTransaction())
	_, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "ephemeral")
	require.NoError(t, err)
	require.NoError(t, dev.Rollback())

	_, err = e.Lookup(engine.RootInodeNumber, "ephemeral")
	requireKind(t, err, ufserrors.NotFound)
}

func TestCreateThenUnlinkRestoresParentSizeAndAllocation(t *testing.T) {
	e := newFS(t)

	rootBefore, err := e.Stat(engine.RootInodeNumber)
	require.NoError(t, err)

	probeInum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "probe")
	require.NoError(t, err)
	_, err = e.Unlink(engine.RootInodeNumber, "probe")
	require.NoError(t, err)

	rootAfter, err := e.Stat(engine.RootInodeNumber)
	require.NoError(t, err)
	assert.Equal(t, rootBefore.Size, rootAfter.Size, "parent size must be restored after create+unlink")

	// Allocation is deterministic lowest-free-index, so the next create
	// must reclaim exactly the inode the probe freed.
	again, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "again")
	require.NoError(t, err)
	assert.Equal(t, probeInum, again, "freed inode must be reallocated before any higher index")
}

func TestDeterministicAllocationAcrossIdenticalSequences(t *testing.T) {
	run := func() (aInum, bInum, dirInum int) {
		dev := testutil.NewFormattedImage(t, 512, 64, 16)
		e := engine.New(dev)

		a, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "a")
		require.NoError(t, err)
		b, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "b")
		require.NoError(t, err)
		d, err := e.Create(engine.RootInodeNumber, layout.Directory, "d")
		require.NoError(t, err)
		return a, b, d
	}

	a1, b1, d1 := run()
	a2, b2, d2 := run()

	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
	assert.Equal(t, d1, d2)
}

func TestBitmapAgreesWithAllocatedInodeTypes(t *testing.T) {
	e := newFS(t)

	fileInum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "f")
	require.NoError(t, err)
	dirInum, err := e.Create(engine.RootInodeNumber, layout.Directory, "d")
	require.NoError(t, err)

	for _, inum := range []int{engine.RootInodeNumber, fileInum, dirInum} {
		stat, err := e.Stat(inum)
		require.NoError(t, err)
		assert.True(t, stat.Type.IsValid())
	}

	_, err = e.Unlink(engine.RootInodeNumber, "f")
	require.NoError(t, err)

	_, err = e.Stat(fileInum)
	requireKind(t, err, ufserrors.InvalidInode)
}

func TestCommitPersistsTransactedWrites(t *testing.T) {
	dev := testutil.NewFormattedImage(t, 512, 64, 16)
	e := engine.New(dev)

	require.NoError(t, dev.BeginTransaction())
	inum, err := e.Create(engine.RootInodeNumber, layout.RegularFile, "durable")
	require.NoError(t, err)
	require.NoError(t, dev.Commit())

	found, err := e.Lookup(engine.RootInodeNumber, "durable")
	require.NoError(t, err)
	assert.Equal(t, inum, found)
}
