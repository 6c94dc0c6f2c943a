package engine

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/hearty/pkg/metadata"
	"github.com/cuemby/hearty/pkg/wal"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(t.TempDir())
}

func TestInitializeCreatesEmptyStore(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(20))

	header, descriptors, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(20))
	require.NoError(t, err)
	assert.Equal(t, int64(20), header.StoreID)
	assert.Equal(t, int64(metadata.NumBlocks), header.TotalBlocks)
	assert.Equal(t, int64(metadata.BlockSize), header.BlockSize)
	assert.Zero(t, header.UsedBlocks)
	assert.False(t, descriptors[0].IsUsed)

	info, err := os.Stat(e.Layout.DataPath(20))
	require.NoError(t, err)
	assert.Equal(t, int64(metadata.NumBlocks)*metadata.BlockSize, info.Size())
}

func TestInitializeExistingStoreFails(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(1))

	err := e.Initialize(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestPutGetRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(20))

	id, err := e.Put(20, "/t/a.txt", []byte("hello"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := e.Get(20, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	header, descriptors, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), header.UsedBlocks)
	assert.True(t, descriptors[0].IsUsed)
	assert.Equal(t, id, descriptors[0].Object())
	assert.Equal(t, "/t/a.txt", descriptors[0].Path())
	assert.Equal(t, int64(5), descriptors[0].DataSize)
}

func TestPutSamePathReplacesInPlace(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(1))

	idA, err := e.Put(1, "/p", []byte("v1"))
	require.NoError(t, err)
	idB, err := e.Put(1, "/p", []byte("v2"))
	require.NoError(t, err)

	// The second put reuses the block /p already occupies and reassigns
	// its id, so the old id dangles.
	assert.NotEqual(t, idA, idB)

	got, err := e.Get(1, idB)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	_, err = e.Get(1, idA)
	assert.ErrorIs(t, err, ErrNotFound)

	header, descriptors, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), header.UsedBlocks)

	matches := 0
	for i := range descriptors {
		if descriptors[i].IsUsed && descriptors[i].Path() == "/p" {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

// fillStore marks every free block used directly in the metadata table, so
// capacity behavior is testable without a thousand real 1 MiB writes.
func fillStore(t *testing.T, e *Engine, storeID int) {
	t.Helper()
	header, descriptors, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(storeID))
	require.NoError(t, err)
	for i := range descriptors {
		if descriptors[i].IsUsed {
			continue
		}
		descriptors[i].IsUsed = true
		descriptors[i].SetObject(fmt.Sprintf("1700000000000_%04d", i%9000+1000))
		descriptors[i].DataSize = 1
		descriptors[i].SetPath(fmt.Sprintf("/fill/%d", i))
		header.UsedBlocks++
	}
	require.NoError(t, metadata.WriteHeaderAndTable(e.Layout.MetadataPath(storeID), header, descriptors))
}

func TestPutNoCapacity(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(2))
	fillStore(t, e, 2)

	_, err := e.Put(2, "/fresh-path", []byte("x"))
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestPutFullStoreStillReplacesExistingPath(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(4))
	fillStore(t, e, 4)

	id, err := e.Put(4, "/fill/42", []byte("replacement"))
	require.NoError(t, err)

	got, err := e.Get(4, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("replacement"), got)

	header, _, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(4))
	require.NoError(t, err)
	assert.Equal(t, int64(metadata.NumBlocks), header.UsedBlocks)
}

func TestPutTooLarge(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(1))

	_, err := e.Put(1, "/big", make([]byte, metadata.BlockSize+1))
	assert.ErrorIs(t, err, ErrTooLarge)

	// Exactly one block is still within bounds.
	_, err = e.Put(1, "/exact", make([]byte, metadata.BlockSize))
	require.NoError(t, err)
}

func TestPutMissingStore(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Put(99, "/p", []byte("x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUnknownObject(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(1))

	_, err := e.Get(1, "1700000000000_0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCrashBeforeCommitRestoresPriorObject(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(5))

	id, err := e.Put(5, "/p", []byte("original"))
	require.NoError(t, err)

	// Simulate a crash between the PUT_FILE flush and COMMIT of a second
	// write to the same block: the log carries the pre-image, the block
	// bytes are already clobbered, and no COMMIT follows.
	header, descriptors, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(5))
	require.NoError(t, err)
	require.Equal(t, int64(1), header.UsedBlocks)

	dataFile, err := os.OpenFile(e.Layout.DataPath(5), os.O_RDWR, 0644)
	require.NoError(t, err)
	preimage := make([]byte, metadata.BlockSize)
	_, err = dataFile.ReadAt(preimage, 0)
	require.NoError(t, err)

	w := wal.Open(e.Layout.LogPath(5))
	require.NoError(t, w.Append(wal.AllocateRecord{BlockIndex: 0, Prior: descriptors[0]}))
	sum := md5.Sum(preimage)
	require.NoError(t, w.Append(wal.PutFileRecord{BlockIndex: 0, MD5: fmt.Sprintf("%x", sum), OldBlockBytes: preimage}))

	_, err = dataFile.WriteAt(bytes.Repeat([]byte{0xCC}, metadata.BlockSize), 0)
	require.NoError(t, err)
	require.NoError(t, dataFile.Close())

	// The next access replays the log before reading.
	got, err := e.Get(5, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	gotHeader, _, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotHeader.UsedBlocks)

	info, err := os.Stat(e.Layout.LogPath(5))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestListReportsOccupancy(t *testing.T) {
	e := newTestEngine(t)

	stores, err := e.List()
	require.NoError(t, err)
	assert.Empty(t, stores)

	require.NoError(t, e.Initialize(3))
	require.NoError(t, e.Initialize(11))
	_, err = e.Put(11, "/a", []byte("x"))
	require.NoError(t, err)

	stores, err = e.List()
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, 3, stores[0].StoreID)
	assert.Equal(t, "active", stores[0].Status)
	assert.Zero(t, stores[0].UsedBlocks)
	assert.Equal(t, 11, stores[1].StoreID)
	assert.Equal(t, int64(1), stores[1].UsedBlocks)
	assert.Equal(t, int64(metadata.NumBlocks), stores[1].TotalBlocks)
}

func TestListMissingBaseDirIsEmpty(t *testing.T) {
	e := New(t.TempDir() + "/nonexistent")
	stores, err := e.List()
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestDestroyRemovesStore(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(7))
	require.NoError(t, e.Destroy(7))

	assert.False(t, e.Layout.Exists(7))
	assert.ErrorIs(t, e.Destroy(7), ErrNotFound)
}
