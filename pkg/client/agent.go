package client

import (
	"context"

	"github.com/cuemby/hearty/internal/heartypb"
	"github.com/cuemby/hearty/pkg/metadata"
)

// LocalAgent implements heartypb.HeartyStoreServer on behalf of a cache
// agent process: Put and Get run through the write-back Cache so repeated
// local access is served without a round trip, while Init, List and
// Destroy pass straight through to the store server. Registered alongside
// EvictionHandler on the same listener, so the address the CLI dials and
// the address the store server dials back into are one and the same.
type LocalAgent struct {
	store *StoreClient
	cache *Cache
}

// NewLocalAgent returns an agent serving CLI requests through cache,
// falling back to store for operations the cache does not intercept.
func NewLocalAgent(store *StoreClient, cache *Cache) *LocalAgent {
	return &LocalAgent{store: store, cache: cache}
}

// Init passes straight through; there is nothing to cache about creating a
// store.
func (a *LocalAgent) Init(ctx context.Context, req *heartypb.InitRequest) (*heartypb.InitResponse, error) {
	return a.store.Init(ctx, req.StoreName)
}

// Put writes through the cache, marking a repeat write to the same
// file_path dirty instead of hitting the server again.
func (a *LocalAgent) Put(ctx context.Context, req *heartypb.PutRequest) (*heartypb.PutResponse, error) {
	id, err := a.cache.CacheablePut(ctx, req.StoreName, req.FilePath, req.FileContent)
	if err != nil {
		return &heartypb.PutResponse{Success: false, Message: err.Error()}, nil
	}
	return &heartypb.PutResponse{Success: true, FileID: id, Message: "put committed"}, nil
}

// Get reads through the cache, confirming ownership with the server before
// trusting a locally held copy, then streams the result back in BlockSize
// chunks the same way the store server does.
func (a *LocalAgent) Get(req *heartypb.GetRequest, stream heartypb.HeartyStore_GetServer) error {
	content, err := a.cache.CacheableGet(stream.Context(), req.StoreName, req.FileIdentifier)
	if err != nil {
		return stream.Send(&heartypb.GetResponse{Success: false, Message: err.Error()})
	}
	if len(content) == 0 {
		return stream.Send(&heartypb.GetResponse{Success: false, Message: "object is empty"})
	}
	for offset := 0; offset < len(content); offset += metadata.BlockSize {
		end := offset + metadata.BlockSize
		if end > len(content) {
			end = len(content)
		}
		if err := stream.Send(&heartypb.GetResponse{Success: true, FileContent: content[offset:end]}); err != nil {
			return err
		}
	}
	return nil
}

// List passes straight through to the server.
func (a *LocalAgent) List(ctx context.Context, req *heartypb.ListRequest) (*heartypb.ListResponse, error) {
	return a.store.List(ctx)
}

// Destroy passes straight through to the server.
func (a *LocalAgent) Destroy(ctx context.Context, req *heartypb.DestroyRequest) (*heartypb.DestroyResponse, error) {
	return a.store.Destroy(ctx, req.StoreName)
}

// Cache is not called by the CLI directly; ownership arbitration happens
// between the store server and this agent's EvictionHandler. Forwarded for
// interface completeness.
func (a *LocalAgent) Cache(ctx context.Context, req *heartypb.CacheRequest) (*heartypb.CacheResponse, error) {
	return a.store.Cache(ctx, req.FileID)
}

// Evict delegates to the cache the same way the dedicated EvictionHandler
// does, for a caller that happens to hold a HeartyStoreServer reference
// instead of an EvictionServer one.
func (a *LocalAgent) Evict(ctx context.Context, req *heartypb.EvictRequest) (*heartypb.EvictResponse, error) {
	if err := a.cache.Evict(ctx, req.FileID); err != nil {
		return &heartypb.EvictResponse{Success: false, Message: err.Error()}, nil
	}
	return &heartypb.EvictResponse{Success: true, Message: "successfully evicted " + req.FileID}, nil
}
