package client

import (
	"context"

	"github.com/cuemby/hearty/internal/heartypb"
	"github.com/cuemby/hearty/pkg/log"
)

// EvictionHandler implements heartypb.EvictionServer: the listener a
// cache agent process binds so the store server can dial back into it and
// demand a cached object be written back and dropped.
type EvictionHandler struct {
	cache *Cache
}

// NewEvictionHandler returns a handler that evicts through cache.
func NewEvictionHandler(cache *Cache) *EvictionHandler {
	return &EvictionHandler{cache: cache}
}

// Evict writes back req.FileID if dirty and drops it from the local
// cache. It reports success even when the object was not cached: the
// server only needs the copy gone.
func (h *EvictionHandler) Evict(ctx context.Context, req *heartypb.EvictRequest) (*heartypb.EvictResponse, error) {
	logger := log.WithObjectID(req.FileID)
	logger.Info().Msg("received eviction request")

	if err := h.cache.Evict(ctx, req.FileID); err != nil {
		return &heartypb.EvictResponse{Success: false, Message: "failed to write back dirty data: " + err.Error()}, nil
	}
	return &heartypb.EvictResponse{Success: true, Message: "successfully evicted " + req.FileID}, nil
}
