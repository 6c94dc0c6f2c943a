package engine

import (
	"crypto/md5"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/cuemby/hearty/pkg/alloc"
	"github.com/cuemby/hearty/pkg/layout"
	"github.com/cuemby/hearty/pkg/log"
	"github.com/cuemby/hearty/pkg/metadata"
	"github.com/cuemby/hearty/pkg/wal"
)

// Engine drives store lifecycle and object operations against a layout
// rooted at a single base path. It holds no lock of its own: callers that
// serialize access (pkg/rpcserver's process-wide mutex) are responsible for
// ensuring only one mutating call runs at a time.
type Engine struct {
	Layout layout.Layout
}

// New returns an Engine rooted at base.
func New(base string) *Engine {
	return &Engine{Layout: layout.New(base)}
}

// StoreInfo is one row of a List result.
type StoreInfo struct {
	StoreID     int
	Status      string
	UsedBlocks  int64
	TotalBlocks int64
}

// newObjectID assigns a "<millis>_<rand4>" identity: the wall-clock
// millisecond timestamp, an underscore, and a uniform random integer in
// [1000,9999]. It does not retry on its own; uniqueObjectID below handles
// collision avoidance.
func newObjectID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		n = big.NewInt(0)
	}
	return fmt.Sprintf("%d_%d", time.Now().UnixMilli(), 1000+n.Int64())
}

// uniqueObjectID generates an id that does not already label a different
// used block, trying up to 8 candidates. Collisions are unlikely but not
// impossible given the fixed "<millis>_<rand4>" shape. If all 8 collide it
// returns a further candidate without checking it.
func uniqueObjectID(descriptors *[metadata.NumBlocks]metadata.BlockDescriptor, excludeBlock int) string {
	for attempt := 0; attempt < 8; attempt++ {
		candidate := newObjectID()
		collides := false
		for i := range descriptors {
			if i == excludeBlock {
				continue
			}
			if descriptors[i].IsUsed && descriptors[i].Object() == candidate {
				collides = true
				break
			}
		}
		if !collides {
			return candidate
		}
	}
	return newObjectID()
}

// Initialize creates a fresh, empty store. It fails with ErrAlreadyExists if
// the store directory already exists. Any partial failure while laying down
// data.bin/metadata.bin removes the directory tree before returning.
func (e *Engine) Initialize(storeID int) error {
	l := log.WithStoreID(storeID)
	dir := e.Layout.StoreDir(storeID)

	if e.Layout.Exists(storeID) {
		return fmt.Errorf("store %d: %w", storeID, ErrAlreadyExists)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("store %d: create directory: %w: %v", storeID, ErrIOFailure, err)
	}

	ok := false
	defer func() {
		if !ok {
			os.RemoveAll(dir)
		}
	}()

	header := metadata.StoreHeader{
		StoreID:     int64(storeID),
		TotalBlocks: metadata.NumBlocks,
		BlockSize:   metadata.BlockSize,
		UsedBlocks:  0,
	}
	var descriptors [metadata.NumBlocks]metadata.BlockDescriptor

	if err := metadata.WriteHeaderAndTable(e.Layout.MetadataPath(storeID), header, descriptors); err != nil {
		return fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}

	if err := allocateZeroFile(e.Layout.DataPath(storeID), metadata.NumBlocks*metadata.BlockSize); err != nil {
		return fmt.Errorf("store %d: allocate data file: %w: %v", storeID, ErrIOFailure, err)
	}

	ok = true
	l.Info().Msg("store initialized")
	return nil
}

func allocateZeroFile(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		return err
	}
	return f.Sync()
}

// recover replays the store's log before any read or mutation is allowed to
// proceed, rolling back whatever a crashed process left in flight.
func (e *Engine) recover(storeID int) error {
	rolledBack, err := wal.Recover(e.Layout.LogPath(storeID), e.Layout.MetadataPath(storeID), e.Layout.DataPath(storeID))
	if err != nil {
		return fmt.Errorf("store %d: recover: %w: %v", storeID, ErrCorruptMetadata, err)
	}
	if rolledBack {
		logger := log.WithStoreID(storeID)
		logger.Warn().Msg("rolled back uncommitted write-ahead log entries")
	}
	return nil
}

// Put writes content under file_path into storeID, returning the object id
// assigned to it (freshly generated for a new block, reassigned in place
// for idempotent replacement of an existing file_path).
func (e *Engine) Put(storeID int, filePath string, content []byte) (string, error) {
	if !e.Layout.Exists(storeID) {
		return "", fmt.Errorf("store %d: %w", storeID, ErrNotFound)
	}
	if len(content) > metadata.BlockSize {
		return "", fmt.Errorf("store %d: %d bytes: %w", storeID, len(content), ErrTooLarge)
	}

	if err := e.recover(storeID); err != nil {
		return "", err
	}

	metaPath := e.Layout.MetadataPath(storeID)
	header, descriptors, err := metadata.ReadHeaderAndTable(metaPath)
	if err != nil {
		return "", fmt.Errorf("store %d: %w: %v", storeID, ErrCorruptMetadata, err)
	}

	blockIndex := alloc.Choose(&descriptors, filePath)
	if blockIndex == alloc.NoSlot {
		return "", fmt.Errorf("store %d: %w", storeID, ErrNoCapacity)
	}

	w := wal.Open(e.Layout.LogPath(storeID))
	prior := descriptors[blockIndex]
	wasFree := !prior.IsUsed

	if err := w.Append(wal.AllocateRecord{BlockIndex: blockIndex, Prior: prior}); err != nil {
		return "", fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}

	dataPath := e.Layout.DataPath(storeID)
	dataFile, err := os.OpenFile(dataPath, os.O_RDWR, 0644)
	if err != nil {
		return "", fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}
	defer dataFile.Close()

	offset := int64(blockIndex) * metadata.BlockSize
	oldBlock := make([]byte, metadata.BlockSize)
	if _, err := dataFile.ReadAt(oldBlock, offset); err != nil {
		return "", fmt.Errorf("store %d: read pre-image: %w: %v", storeID, ErrIOFailure, err)
	}
	sum := md5.Sum(oldBlock)

	if err := w.Append(wal.PutFileRecord{BlockIndex: blockIndex, MD5: fmt.Sprintf("%x", sum), OldBlockBytes: oldBlock}); err != nil {
		return "", fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}

	newBlock := make([]byte, metadata.BlockSize)
	copy(newBlock, content)
	if _, err := dataFile.WriteAt(newBlock, offset); err != nil {
		return "", fmt.Errorf("store %d: write block: %w: %v", storeID, ErrIOFailure, err)
	}
	if err := dataFile.Sync(); err != nil {
		return "", fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}

	objectID := uniqueObjectID(&descriptors, blockIndex)
	if err := w.Append(wal.AddEntryRecord{
		BlockIndex: blockIndex,
		ObjectID:   objectID,
		DataSize:   int64(len(content)),
		FilePath:   filePath,
		WasFree:    wasFree,
	}); err != nil {
		return "", fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}

	descriptors[blockIndex].IsUsed = true
	descriptors[blockIndex].SetObject(objectID)
	descriptors[blockIndex].DataSize = int64(len(content))
	descriptors[blockIndex].Timestamp = time.Now().Unix()
	descriptors[blockIndex].SetPath(filePath)
	if wasFree {
		header.UsedBlocks++
	}

	if err := metadata.WriteHeaderAndTable(metaPath, header, descriptors); err != nil {
		return "", fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}

	if err := w.Append(wal.CommitRecord{}); err != nil {
		return "", fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}

	putLogger := log.WithStoreID(storeID)
	putLogger.Info().
		Str("object_id", objectID).
		Str("file_path", filePath).
		Int("block_index", blockIndex).
		Msg("put committed")
	return objectID, nil
}

// Get returns the content stored under objectID in storeID.
func (e *Engine) Get(storeID int, objectID string) ([]byte, error) {
	if !e.Layout.Exists(storeID) {
		return nil, fmt.Errorf("store %d: %w", storeID, ErrNotFound)
	}

	if err := e.recover(storeID); err != nil {
		return nil, err
	}

	_, descriptors, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(storeID))
	if err != nil {
		return nil, fmt.Errorf("store %d: %w: %v", storeID, ErrCorruptMetadata, err)
	}

	for i := range descriptors {
		if descriptors[i].IsUsed && descriptors[i].Object() == objectID {
			dataFile, err := os.Open(e.Layout.DataPath(storeID))
			if err != nil {
				return nil, fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
			}
			defer dataFile.Close()

			buf := make([]byte, descriptors[i].DataSize)
			offset := int64(i) * metadata.BlockSize
			if _, err := dataFile.ReadAt(buf, offset); err != nil {
				return nil, fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
			}
			return buf, nil
		}
	}
	return nil, fmt.Errorf("store %d: object %s: %w", storeID, objectID, ErrNotFound)
}

// List scans the base directory for store subdirectories and reports each
// one's occupancy.
func (e *Engine) List() ([]StoreInfo, error) {
	entries, err := os.ReadDir(e.Layout.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list stores: %w: %v", ErrIOFailure, err)
	}

	var stores []StoreInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		storeID, ok := layout.StoreIDFromDirName(entry.Name())
		if !ok {
			continue
		}
		header, _, err := metadata.ReadHeaderAndTable(e.Layout.MetadataPath(storeID))
		if err != nil {
			listLogger := log.WithStoreID(storeID)
			listLogger.Warn().Err(err).Msg("skipping unreadable store during list")
			continue
		}
		stores = append(stores, StoreInfo{
			StoreID:     storeID,
			Status:      "active",
			UsedBlocks:  header.UsedBlocks,
			TotalBlocks: header.TotalBlocks,
		})
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].StoreID < stores[j].StoreID })
	return stores, nil
}

// Destroy removes storeID's directory tree entirely.
func (e *Engine) Destroy(storeID int) error {
	if !e.Layout.Exists(storeID) {
		return fmt.Errorf("store %d: %w", storeID, ErrNotFound)
	}
	if err := os.RemoveAll(e.Layout.StoreDir(storeID)); err != nil {
		return fmt.Errorf("store %d: %w: %v", storeID, ErrIOFailure, err)
	}
	destroyLogger := log.WithStoreID(storeID)
	destroyLogger.Info().Msg("store destroyed")
	return nil
}
