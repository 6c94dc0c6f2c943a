package wal

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cuemby/hearty/pkg/metadata"
)

// RecordType tags a WAL record's kind.
type RecordType int

const (
	Allocate RecordType = iota
	PutFile
	AddEntry
	Commit
)

func (t RecordType) String() string {
	switch t {
	case Allocate:
		return "ALLOCATE"
	case PutFile:
		return "PUT_FILE"
	case AddEntry:
		return "ADD_ENTRY"
	case Commit:
		return "COMMIT"
	default:
		return "UNKNOWN"
	}
}

// Record is one line of the write-ahead log.
type Record interface {
	Type() RecordType
	encode() string
}

// AllocateRecord marks block_index as the target of an in-flight put and
// snapshots the descriptor it held beforehand, so rollback can restore the
// block to exactly its prior state whether that was free or occupied by
// another object (the idempotent-replacement path).
type AllocateRecord struct {
	BlockIndex int
	Prior      metadata.BlockDescriptor
}

func (AllocateRecord) Type() RecordType { return Allocate }

func (r AllocateRecord) encode() string {
	return strings.Join([]string{
		strconv.Itoa(int(Allocate)),
		strconv.Itoa(r.BlockIndex),
		boolField(r.Prior.IsUsed),
		b64(r.Prior.Object()),
		strconv.FormatInt(r.Prior.DataSize, 10),
		strconv.FormatInt(r.Prior.Timestamp, 10),
		b64(r.Prior.Path()),
	}, "|")
}

// PutFileRecord captures the block's pre-image before it is overwritten.
type PutFileRecord struct {
	BlockIndex    int
	MD5           string
	OldBlockBytes []byte
}

func (PutFileRecord) Type() RecordType { return PutFile }

func (r PutFileRecord) encode() string {
	return strings.Join([]string{
		strconv.Itoa(int(PutFile)),
		strconv.Itoa(r.BlockIndex),
		r.MD5,
		base64.StdEncoding.EncodeToString(r.OldBlockBytes),
	}, "|")
}

// AddEntryRecord records the identity written into a block's descriptor.
// WasFree is true when the preceding ALLOCATE found the block free, meaning
// this put incremented used_blocks and rollback must decrement it; it is
// false for idempotent-replacement puts, which leave used_blocks unchanged.
type AddEntryRecord struct {
	BlockIndex int
	ObjectID   string
	DataSize   int64
	FilePath   string
	WasFree    bool
}

func (AddEntryRecord) Type() RecordType { return AddEntry }

func (r AddEntryRecord) encode() string {
	return strings.Join([]string{
		strconv.Itoa(int(AddEntry)),
		strconv.Itoa(r.BlockIndex),
		b64(r.ObjectID),
		strconv.FormatInt(r.DataSize, 10),
		b64(r.FilePath),
		boolField(r.WasFree),
	}, "|")
}

// CommitRecord closes out a transaction; everything before it is durable.
type CommitRecord struct{}

func (CommitRecord) Type() RecordType { return Commit }

func (CommitRecord) encode() string {
	return strconv.Itoa(int(Commit))
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func unb64(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decode parses one log line back into a Record.
func decode(line string) (Record, error) {
	fields := strings.Split(line, "|")
	if len(fields) == 0 {
		return nil, fmt.Errorf("wal: empty record line")
	}
	tag, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("wal: bad record tag %q: %w", fields[0], err)
	}

	switch RecordType(tag) {
	case Allocate:
		if len(fields) != 7 {
			return nil, fmt.Errorf("wal: ALLOCATE wants 7 fields, got %d", len(fields))
		}
		blockIndex, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("wal: ALLOCATE block_index: %w", err)
		}
		objectID, err := unb64(fields[3])
		if err != nil {
			return nil, fmt.Errorf("wal: ALLOCATE object_id: %w", err)
		}
		dataSize, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("wal: ALLOCATE data_size: %w", err)
		}
		timestamp, err := strconv.ParseInt(fields[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("wal: ALLOCATE timestamp: %w", err)
		}
		filePath, err := unb64(fields[6])
		if err != nil {
			return nil, fmt.Errorf("wal: ALLOCATE file_path: %w", err)
		}
		var prior metadata.BlockDescriptor
		prior.IsUsed = fields[2] == "1"
		prior.SetObject(objectID)
		prior.DataSize = dataSize
		prior.Timestamp = timestamp
		prior.SetPath(filePath)
		return AllocateRecord{BlockIndex: blockIndex, Prior: prior}, nil

	case PutFile:
		if len(fields) != 4 {
			return nil, fmt.Errorf("wal: PUT_FILE wants 4 fields, got %d", len(fields))
		}
		blockIndex, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("wal: PUT_FILE block_index: %w", err)
		}
		old, err := base64.StdEncoding.DecodeString(fields[3])
		if err != nil {
			return nil, fmt.Errorf("wal: PUT_FILE old_block_bytes: %w", err)
		}
		return PutFileRecord{BlockIndex: blockIndex, MD5: fields[2], OldBlockBytes: old}, nil

	case AddEntry:
		if len(fields) != 6 {
			return nil, fmt.Errorf("wal: ADD_ENTRY wants 6 fields, got %d", len(fields))
		}
		blockIndex, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("wal: ADD_ENTRY block_index: %w", err)
		}
		objectID, err := unb64(fields[2])
		if err != nil {
			return nil, fmt.Errorf("wal: ADD_ENTRY object_id: %w", err)
		}
		dataSize, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("wal: ADD_ENTRY data_size: %w", err)
		}
		filePath, err := unb64(fields[4])
		if err != nil {
			return nil, fmt.Errorf("wal: ADD_ENTRY file_path: %w", err)
		}
		return AddEntryRecord{
			BlockIndex: blockIndex,
			ObjectID:   objectID,
			DataSize:   dataSize,
			FilePath:   filePath,
			WasFree:    fields[5] == "1",
		}, nil

	case Commit:
		return CommitRecord{}, nil

	default:
		return nil, fmt.Errorf("wal: unknown record tag %d", tag)
	}
}

// WAL is a handle to a store's write-ahead log file.
type WAL struct {
	path string
}

// Open returns a handle to the log at path. The file is created on first
// Append if it does not already exist.
func Open(path string) *WAL {
	return &WAL{path: path}
}

// Append writes rec as a single line, flushing and fsyncing before
// returning, so the record is durable before the caller performs the
// in-place update it guards.
func (w *WAL) Append(rec Record) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("wal: open %s: %w", w.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(rec.encode() + "\n"); err != nil {
		return fmt.Errorf("wal: append %s record: %w", rec.Type(), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("wal: fsync after %s record: %w", rec.Type(), err)
	}
	return nil
}

// ReadAll returns every record currently in the log, in file order. A
// missing log file is treated as empty.
func (w *WAL) ReadAll() ([]Record, error) {
	f, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("wal: open %s: %w", w.path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*metadata.BlockSize+4096)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		rec, err := decode(line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wal: scan %s: %w", w.path, err)
	}
	return records, nil
}

// Truncate empties the log file, creating it if absent.
func (w *WAL) Truncate() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("wal: truncate %s: %w", w.path, err)
	}
	defer f.Close()
	return f.Sync()
}

// uncommittedTail returns the suffix of records following the last COMMIT
// (the whole slice if no COMMIT is present).
func uncommittedTail(records []Record) []Record {
	last := -1
	for i, r := range records {
		if r.Type() == Commit {
			last = i
		}
	}
	return records[last+1:]
}

// Recover replays path against the metadata and data files rooted at
// metadataPath and dataPath. It rolls back any transaction left in flight
// when the log was last written to (the suffix following the last COMMIT),
// persists the corrected metadata, appends a synthetic COMMIT, and
// truncates the log. On a clean shutdown (log already ends in COMMIT, or is empty) it
// only truncates. It reports whether a rollback was applied.
func Recover(logPath, metadataPath, dataPath string) (rolledBack bool, err error) {
	w := Open(logPath)
	records, err := w.ReadAll()
	if err != nil {
		return false, err
	}

	tail := uncommittedTail(records)
	if len(tail) == 0 {
		return false, w.Truncate()
	}

	header, descriptors, err := metadata.ReadHeaderAndTable(metadataPath)
	if err != nil {
		return false, fmt.Errorf("wal: recover: %w", err)
	}

	dataFile, err := os.OpenFile(dataPath, os.O_RDWR, 0644)
	if err != nil {
		return false, fmt.Errorf("wal: recover: open %s: %w", dataPath, err)
	}
	defer dataFile.Close()

	for i := len(tail) - 1; i >= 0; i-- {
		switch rec := tail[i].(type) {
		case AddEntryRecord:
			if rec.WasFree {
				header.UsedBlocks--
			}
		case PutFileRecord:
			if _, err := dataFile.WriteAt(rec.OldBlockBytes, int64(rec.BlockIndex)*metadata.BlockSize); err != nil {
				return false, fmt.Errorf("wal: recover: restore block %d: %w", rec.BlockIndex, err)
			}
		case AllocateRecord:
			descriptors[rec.BlockIndex] = rec.Prior
		case CommitRecord:
			// COMMIT cannot appear in an uncommitted tail; ignore defensively.
		}
	}

	if err := dataFile.Sync(); err != nil {
		return false, fmt.Errorf("wal: recover: fsync %s: %w", dataPath, err)
	}
	if err := metadata.WriteHeaderAndTable(metadataPath, header, descriptors); err != nil {
		return false, fmt.Errorf("wal: recover: %w", err)
	}
	if err := w.Append(CommitRecord{}); err != nil {
		return false, err
	}
	if err := w.Truncate(); err != nil {
		return false, err
	}
	return true, nil
}
