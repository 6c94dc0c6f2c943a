// Package engine implements store lifecycle and object put/get/list/destroy
// on top of pkg/layout, pkg/metadata, pkg/alloc and pkg/wal: recover the log,
// load the descriptor table, apply the allocator's placement policy, and
// drive every mutation through the ALLOCATE/PUT_FILE/ADD_ENTRY/COMMIT
// sequence: ADD_ENTRY is logged before the descriptor table is updated and
// persisted, and COMMIT after.
package engine
