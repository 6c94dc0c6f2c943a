/*
Package log provides structured logging for hearty-store using zerolog.

A process configures the logger once (level, JSON vs console), then
derives scoped child loggers carrying the fields this system's events
hang off: the subsystem, the store, the object, or the coherence peer.
Before Init runs everything is discarded, so libraries log freely.

	log.Init(log.Config{Level: "info", JSONOutput: true})

	storeLog := log.WithStoreID(20)
	storeLog.Info().Str("object_id", id).Msg("put committed")
*/
package log
