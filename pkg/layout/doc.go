// Package layout derives on-disk paths for a store from its integer id.
//
// A store with id N lives at <base>/store_N, holding data.bin, metadata.bin,
// and a sibling <base>/store_N-log.txt write-ahead log.
package layout
