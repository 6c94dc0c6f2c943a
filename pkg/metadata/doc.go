// Package metadata encodes and decodes a store's fixed-layout header and
// block descriptor table: the StoreHeader record followed by exactly
// NumBlocks BlockDescriptor records, read and written whole.
package metadata
