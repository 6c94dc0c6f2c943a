// Package alloc picks a target block index for a write: a single scan in
// ascending index order that stops at the first slot which is either free
// or already holds the same file path (idempotent replacement).
package alloc
