// Package wal implements the store engine's write-ahead log: a strict
// ALLOCATE -> PUT_FILE -> ADD_ENTRY -> COMMIT record sequence per mutation,
// flushed and fsynced before the corresponding in-place update, plus replay
// on open that rolls back whatever followed the last COMMIT.
//
// Records are encoded one per line, '|'-delimited, with free-form byte
// fields (paths, object ids, block pre-images) base64-encoded so a record
// never spans more than one line regardless of its payload.
//
// The ALLOCATE record carries a full snapshot of the descriptor occupying
// its block before the put, not just the block index. Clearing is_used
// unconditionally on rollback only restores the store correctly when the
// block was previously free; for the idempotent-replacement path (reusing
// the block that already holds the same file_path) the prior occupant's
// identity must be restored, not erased, or a crash between PUT_FILE and
// COMMIT on a replacement write would turn a live object into a zeroed
// descriptor instead of reverting to the object it replaced.
package wal
