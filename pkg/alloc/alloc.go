package alloc

import "github.com/cuemby/hearty/pkg/metadata"

// NoSlot is returned by Choose when neither a free slot nor a matching
// path-reuse slot exists.
const NoSlot = -1

// Choose scans descriptors in ascending index order and returns the first
// index that is either free or already holds filePath (idempotent
// replacement of the same logical file). Because puts fill blocks from
// index zero upward, an existing filePath block always sits below the
// first free slot, so a repeat put to the same path lands on its old
// block rather than consuming a fresh one. NoSlot means the store is full
// and no block holds filePath.
//
// The scan order is load-bearing: it determines which block a put lands
// on, and therefore the order write-ahead log records are emitted in.
func Choose(descriptors *[metadata.NumBlocks]metadata.BlockDescriptor, filePath string) int {
	for i := range descriptors {
		if !descriptors[i].IsUsed {
			return i
		}
		if descriptors[i].Path() == filePath {
			return i
		}
	}
	return NoSlot
}
