package wal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/hearty/pkg/metadata"
)

func testPaths(t *testing.T) (logPath, metaPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "store_0-log.txt"),
		filepath.Join(dir, "metadata.bin"),
		filepath.Join(dir, "data.bin")
}

func writeTestStore(t *testing.T, metaPath, dataPath string, header metadata.StoreHeader, descriptors [metadata.NumBlocks]metadata.BlockDescriptor) {
	t.Helper()
	require.NoError(t, metadata.WriteHeaderAndTable(metaPath, header, descriptors))

	f, err := os.OpenFile(dataPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(metadata.NumBlocks*metadata.BlockSize))
	require.NoError(t, f.Close())
}

func TestAppendReadAllRoundTrip(t *testing.T) {
	logPath, _, _ := testPaths(t)
	w := Open(logPath)

	var prior metadata.BlockDescriptor
	prior.IsUsed = true
	prior.SetObject("1700000000000_1234")
	prior.DataSize = 5
	prior.Timestamp = 1700000000
	prior.SetPath("/tmp/with space|and pipe")

	preimage := bytes.Repeat([]byte{0xAB}, metadata.BlockSize)
	records := []Record{
		AllocateRecord{BlockIndex: 7, Prior: prior},
		PutFileRecord{BlockIndex: 7, MD5: "d41d8cd98f00b204e9800998ecf8427e", OldBlockBytes: preimage},
		AddEntryRecord{BlockIndex: 7, ObjectID: "1700000000001_5678", DataSize: 5, FilePath: "/tmp/with space|and pipe", WasFree: false},
		CommitRecord{},
	}
	for _, rec := range records {
		require.NoError(t, w.Append(rec))
	}

	got, err := w.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 4)

	alloc := got[0].(AllocateRecord)
	assert.Equal(t, 7, alloc.BlockIndex)
	assert.True(t, alloc.Prior.IsUsed)
	assert.Equal(t, "1700000000000_1234", alloc.Prior.Object())
	assert.Equal(t, "/tmp/with space|and pipe", alloc.Prior.Path())

	put := got[1].(PutFileRecord)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", put.MD5)
	assert.Equal(t, preimage, put.OldBlockBytes)

	add := got[2].(AddEntryRecord)
	assert.Equal(t, "1700000000001_5678", add.ObjectID)
	assert.Equal(t, int64(5), add.DataSize)
	assert.False(t, add.WasFree)

	assert.Equal(t, Commit, got[3].Type())
}

func TestReadAllMissingFileIsEmpty(t *testing.T) {
	logPath, _, _ := testPaths(t)

	records, err := Open(logPath).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUncommittedTail(t *testing.T) {
	recs := []Record{
		AllocateRecord{BlockIndex: 1},
		CommitRecord{},
		AllocateRecord{BlockIndex: 2},
		PutFileRecord{BlockIndex: 2},
	}
	tail := uncommittedTail(recs)
	require.Len(t, tail, 2)
	assert.Equal(t, 2, tail[0].(AllocateRecord).BlockIndex)

	assert.Empty(t, uncommittedTail([]Record{AllocateRecord{}, CommitRecord{}}))
	assert.Len(t, uncommittedTail([]Record{AllocateRecord{}}), 1)
}

func TestRecoverCleanLogOnlyTruncates(t *testing.T) {
	logPath, metaPath, dataPath := testPaths(t)
	writeTestStore(t, metaPath, dataPath, metadata.StoreHeader{TotalBlocks: metadata.NumBlocks, BlockSize: metadata.BlockSize}, [metadata.NumBlocks]metadata.BlockDescriptor{})

	w := Open(logPath)
	require.NoError(t, w.Append(AllocateRecord{BlockIndex: 3}))
	require.NoError(t, w.Append(CommitRecord{}))

	rolledBack, err := Recover(logPath, metaPath, dataPath)
	require.NoError(t, err)
	assert.False(t, rolledBack)

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestRecoverRollsBackInterruptedPut(t *testing.T) {
	logPath, metaPath, dataPath := testPaths(t)

	// Committed state: block 0 holds "original" under /p.
	original := make([]byte, metadata.BlockSize)
	copy(original, "original")

	var descriptors [metadata.NumBlocks]metadata.BlockDescriptor
	descriptors[0].IsUsed = true
	descriptors[0].SetObject("1700000000000_1111")
	descriptors[0].DataSize = 8
	descriptors[0].SetPath("/p")
	header := metadata.StoreHeader{StoreID: 0, TotalBlocks: metadata.NumBlocks, BlockSize: metadata.BlockSize, UsedBlocks: 1}
	writeTestStore(t, metaPath, dataPath, header, descriptors)

	dataFile, err := os.OpenFile(dataPath, os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = dataFile.WriteAt(original, 0)
	require.NoError(t, err)

	// An interrupted second put targeting block 1: allocation and block
	// overwrite flushed, metadata updated, no COMMIT.
	w := Open(logPath)
	require.NoError(t, w.Append(AllocateRecord{BlockIndex: 1, Prior: descriptors[1]}))

	preimage := make([]byte, metadata.BlockSize)
	require.NoError(t, w.Append(PutFileRecord{BlockIndex: 1, MD5: "ffff", OldBlockBytes: preimage}))
	_, err = dataFile.WriteAt(bytes.Repeat([]byte{0xEE}, metadata.BlockSize), metadata.BlockSize)
	require.NoError(t, err)
	require.NoError(t, dataFile.Close())

	require.NoError(t, w.Append(AddEntryRecord{BlockIndex: 1, ObjectID: "1700000000002_2222", DataSize: 4, FilePath: "/q", WasFree: true}))

	descriptors[1].IsUsed = true
	descriptors[1].SetObject("1700000000002_2222")
	descriptors[1].DataSize = 4
	descriptors[1].SetPath("/q")
	header.UsedBlocks = 2
	require.NoError(t, metadata.WriteHeaderAndTable(metaPath, header, descriptors))

	rolledBack, err := Recover(logPath, metaPath, dataPath)
	require.NoError(t, err)
	assert.True(t, rolledBack)

	gotHeader, gotDescriptors, err := metadata.ReadHeaderAndTable(metaPath)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gotHeader.UsedBlocks)
	assert.False(t, gotDescriptors[1].IsUsed)
	assert.Empty(t, gotDescriptors[1].Object())
	assert.True(t, gotDescriptors[0].IsUsed)
	assert.Equal(t, "1700000000000_1111", gotDescriptors[0].Object())

	data, err := os.Open(dataPath)
	require.NoError(t, err)
	defer data.Close()
	block1 := make([]byte, metadata.BlockSize)
	_, err = data.ReadAt(block1, metadata.BlockSize)
	require.NoError(t, err)
	assert.Equal(t, preimage, block1)

	block0 := make([]byte, 8)
	_, err = data.ReadAt(block0, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), block0)

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	// Recovery is idempotent: a second pass finds a clean log.
	rolledBack, err = Recover(logPath, metaPath, dataPath)
	require.NoError(t, err)
	assert.False(t, rolledBack)
}

func TestRecoverRestoresReplacedDescriptor(t *testing.T) {
	logPath, metaPath, dataPath := testPaths(t)

	// Every block used: the interrupted put was an idempotent replacement
	// of /p at block 0, so rollback must restore the prior descriptor and
	// leave used_blocks untouched.
	var descriptors [metadata.NumBlocks]metadata.BlockDescriptor
	for i := range descriptors {
		descriptors[i].IsUsed = true
		descriptors[i].SetObject("1700000000000_1000")
		descriptors[i].DataSize = 1
		descriptors[i].SetPath("/other")
	}
	descriptors[0].SetObject("1700000000000_1111")
	descriptors[0].SetPath("/p")
	header := metadata.StoreHeader{TotalBlocks: metadata.NumBlocks, BlockSize: metadata.BlockSize, UsedBlocks: metadata.NumBlocks}
	writeTestStore(t, metaPath, dataPath, header, descriptors)

	w := Open(logPath)
	require.NoError(t, w.Append(AllocateRecord{BlockIndex: 0, Prior: descriptors[0]}))
	require.NoError(t, w.Append(AddEntryRecord{BlockIndex: 0, ObjectID: "1700000000003_3333", DataSize: 2, FilePath: "/p", WasFree: false}))

	descriptors[0].SetObject("1700000000003_3333")
	descriptors[0].DataSize = 2
	require.NoError(t, metadata.WriteHeaderAndTable(metaPath, header, descriptors))

	rolledBack, err := Recover(logPath, metaPath, dataPath)
	require.NoError(t, err)
	assert.True(t, rolledBack)

	gotHeader, gotDescriptors, err := metadata.ReadHeaderAndTable(metaPath)
	require.NoError(t, err)
	assert.Equal(t, int64(metadata.NumBlocks), gotHeader.UsedBlocks)
	assert.Equal(t, "1700000000000_1111", gotDescriptors[0].Object())
	assert.Equal(t, int64(1), gotDescriptors[0].DataSize)
}
