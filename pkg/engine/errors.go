package engine

import "errors"

// Sentinel errors returned by engine operations, checked with errors.Is.
// Handlers at the RPC layer translate these into success=false responses
// rather than transport failures.
var (
	ErrBusy            = errors.New("engine: busy")
	ErrNotFound        = errors.New("engine: not found")
	ErrAlreadyExists   = errors.New("engine: already exists")
	ErrNoCapacity      = errors.New("engine: no capacity")
	ErrTooLarge        = errors.New("engine: content exceeds block size")
	ErrIOFailure       = errors.New("engine: io failure")
	ErrCorruptMetadata = errors.New("engine: corrupt metadata")
	ErrCoherence       = errors.New("engine: coherence failure")
)
