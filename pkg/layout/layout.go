package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultBasePath is used when no override is configured.
const DefaultBasePath = "/tmp/hearty"

const (
	dataFilename = "data.bin"
	metaFilename = "metadata.bin"
	storeDirPfx  = "store_"
	logSuffix    = "-log.txt"
)

// Layout resolves the on-disk paths for stores rooted at a base directory.
type Layout struct {
	BasePath string
}

// New returns a Layout rooted at base. An empty base falls back to DefaultBasePath.
func New(base string) Layout {
	if base == "" {
		base = DefaultBasePath
	}
	return Layout{BasePath: base}
}

// StoreDir returns the directory holding a store's data and metadata files.
func (l Layout) StoreDir(storeID int) string {
	return filepath.Join(l.BasePath, fmt.Sprintf("%s%d", storeDirPfx, storeID))
}

// DataPath returns the path to a store's block data file.
func (l Layout) DataPath(storeID int) string {
	return filepath.Join(l.StoreDir(storeID), dataFilename)
}

// MetadataPath returns the path to a store's header+descriptor table file.
func (l Layout) MetadataPath(storeID int) string {
	return filepath.Join(l.StoreDir(storeID), metaFilename)
}

// LogPath returns the path to a store's write-ahead log. It is a sibling of
// the store directory, not inside it, matching the original "store_N-log.txt"
// naming convention.
func (l Layout) LogPath(storeID int) string {
	return filepath.Join(l.BasePath, fmt.Sprintf("%s%d%s", storeDirPfx, storeID, logSuffix))
}

// Exists reports whether a store directory is present.
func (l Layout) Exists(storeID int) bool {
	_, err := os.Stat(l.StoreDir(storeID))
	return err == nil
}

// StoreIDFromDirName parses "store_<digits>" into its integer id. ok is
// false if name doesn't match that shape.
func StoreIDFromDirName(name string) (id int, ok bool) {
	const pfx = storeDirPfx
	if len(name) <= len(pfx) || name[:len(pfx)] != pfx {
		return 0, false
	}
	rest := name[len(pfx):]
	for _, c := range rest {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n := 0
	for _, c := range rest {
		n = n*10 + int(c-'0')
	}
	return n, true
}
