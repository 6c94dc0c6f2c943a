// Package client implements the store-side RPC stub used by CLI and cache
// agent processes (a thin wrapper over internal/heartypb.HeartyStoreClient)
// together with the client-side write-back cache and the eviction listener
// the store server dials back into when it reassigns ownership.
package client
