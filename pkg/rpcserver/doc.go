// Package rpcserver implements the store side of the hearty-store RPC
// surface on top of pkg/engine: Init, Put, Get (server-streaming),
// List, Destroy, Cache and Evict, guarded by a single process-wide mutex
// acquired with try-lock semantics so a busy server answers
// success=false rather than blocking or erroring at the transport layer.
//
// Cache/Evict implement the single-owner coherence protocol: ownership is
// keyed by the eviction-listener address each Cache request advertises,
// and a contested Cache call dials the previous owner's eviction listener
// (internal/heartypb.EvictionClient) before granting the new owner.
package rpcserver
