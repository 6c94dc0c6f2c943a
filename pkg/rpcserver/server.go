package rpcserver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cuemby/hearty/internal/heartypb"
	"github.com/cuemby/hearty/pkg/engine"
	"github.com/cuemby/hearty/pkg/log"
	"github.com/cuemby/hearty/pkg/metadata"
	"github.com/cuemby/hearty/pkg/metrics"
)

// busyMessage is returned verbatim when the process-wide mutex is held by
// another handler. The client MUST treat this as a logical, not transport,
// failure.
const busyMessage = "Server is handling another request"

// Server implements heartypb.HeartyStoreServer and heartypb.EvictionServer's
// peer (the dial-out side): a single mutex serializes every handler, and an
// in-memory map tracks which peer currently owns each cached object.
type Server struct {
	eng *engine.Engine

	mu     sync.Mutex
	owners map[string]string // object_id -> peer address

	dialEvictor func(ctx context.Context, peerAddr string) (heartypb.EvictionClient, func() error, error)
}

// New returns a Server driving eng, dialing previous owners with a plain
// insecure gRPC connection; the protocol carries no authentication.
func New(eng *engine.Engine) *Server {
	return &Server{
		eng:    eng,
		owners: make(map[string]string),
		dialEvictor: func(ctx context.Context, peerAddr string) (heartypb.EvictionClient, func() error, error) {
			conn, err := grpc.Dial(peerAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return nil, nil, err
			}
			return heartypb.NewEvictionClient(conn), conn.Close, nil
		},
	}
}

func parseStoreID(storeName string) (int, error) {
	id, err := strconv.Atoi(storeName)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("store_name %q is not a non-negative integer", storeName)
	}
	return id, nil
}

// errMessage turns an engine error into the human-readable message the
// wire response carries.
func errMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrNoCapacity):
		return "No free blocks available in store"
	case errors.Is(err, engine.ErrTooLarge):
		return "content too large for block size"
	case errors.Is(err, engine.ErrNotFound):
		return "not found: " + err.Error()
	case errors.Is(err, engine.ErrAlreadyExists):
		return "already exists: " + err.Error()
	case errors.Is(err, engine.ErrCorruptMetadata):
		return "corrupt metadata: " + err.Error()
	case errors.Is(err, engine.ErrCoherence):
		return "coherence failure: " + err.Error()
	default:
		return "io failure: " + err.Error()
	}
}

// Init implements heartypb.HeartyStoreServer.
func (s *Server) Init(ctx context.Context, req *heartypb.InitRequest) (*heartypb.InitResponse, error) {
	storeID, err := parseStoreID(req.StoreName)
	if err != nil {
		return &heartypb.InitResponse{Success: false, Message: err.Error()}, nil
	}

	if !s.mu.TryLock() {
		metrics.BusyRejectionsTotal.WithLabelValues("Init").Inc()
		return &heartypb.InitResponse{Success: false, Message: busyMessage}, nil
	}
	defer s.mu.Unlock()

	if err := s.eng.Initialize(storeID); err != nil {
		return &heartypb.InitResponse{Success: false, Message: errMessage(err)}, nil
	}
	return &heartypb.InitResponse{Success: true, Message: fmt.Sprintf("store %d initialized", storeID)}, nil
}

// Put implements heartypb.HeartyStoreServer.
func (s *Server) Put(ctx context.Context, req *heartypb.PutRequest) (*heartypb.PutResponse, error) {
	storeID, err := parseStoreID(req.StoreName)
	if err != nil {
		return &heartypb.PutResponse{Success: false, Message: err.Error()}, nil
	}

	if !s.mu.TryLock() {
		metrics.BusyRejectionsTotal.WithLabelValues("Put").Inc()
		return &heartypb.PutResponse{Success: false, Message: busyMessage}, nil
	}
	defer s.mu.Unlock()

	objectID, err := s.eng.Put(storeID, req.FilePath, req.FileContent)
	if err != nil {
		metrics.PutsTotal.WithLabelValues(req.StoreName, "failure").Inc()
		return &heartypb.PutResponse{Success: false, Message: errMessage(err)}, nil
	}

	metrics.PutsTotal.WithLabelValues(req.StoreName, "success").Inc()
	if header, _, err := s.storeUsage(storeID); err == nil {
		metrics.StoreUsedBlocks.WithLabelValues(req.StoreName).Set(float64(header.UsedBlocks))
	}
	return &heartypb.PutResponse{Success: true, FileID: objectID, Message: "put committed"}, nil
}

func (s *Server) storeUsage(storeID int) (metadata.StoreHeader, [metadata.NumBlocks]metadata.BlockDescriptor, error) {
	return metadata.ReadHeaderAndTable(s.eng.Layout.MetadataPath(storeID))
}

// Get implements heartypb.HeartyStoreServer, chopping the retrieved object
// into BlockSize chunks, one per stream message. The lock is held for the
// duration of the stream; handlers never release it across the write
// back-pressure suspension point.
func (s *Server) Get(req *heartypb.GetRequest, stream heartypb.HeartyStore_GetServer) error {
	storeID, err := parseStoreID(req.StoreName)
	if err != nil {
		return stream.Send(&heartypb.GetResponse{Success: false, Message: err.Error()})
	}

	if !s.mu.TryLock() {
		metrics.BusyRejectionsTotal.WithLabelValues("Get").Inc()
		return stream.Send(&heartypb.GetResponse{Success: false, Message: busyMessage})
	}
	defer s.mu.Unlock()

	content, err := s.eng.Get(storeID, req.FileIdentifier)
	if err != nil {
		metrics.GetsTotal.WithLabelValues(req.StoreName, "failure").Inc()
		return stream.Send(&heartypb.GetResponse{Success: false, Message: errMessage(err)})
	}
	metrics.GetsTotal.WithLabelValues(req.StoreName, "success").Inc()

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

// List implements heartypb.HeartyStoreServer.
func (s *Server) List(ctx context.Context, req *heartypb.ListRequest) (*heartypb.ListResponse, error) {
	if !s.mu.TryLock() {
		metrics.BusyRejectionsTotal.WithLabelValues("List").Inc()
		return &heartypb.ListResponse{Success: false, Message: busyMessage}, nil
	}
	defer s.mu.Unlock()

	stores, err := s.eng.List()
	if err != nil {
		return &heartypb.ListResponse{Success: false, Message: errMessage(err)}, nil
	}
	if len(stores) == 0 {
		return &heartypb.ListResponse{Success: true, Message: "No store found"}, nil
	}

	msg := ""
	for i, st := range stores {
		if i > 0 {
			msg += "\n"
		}
		msg += fmt.Sprintf("store %d: %s, used_blocks=%d/%d", st.StoreID, st.Status, st.UsedBlocks, st.TotalBlocks)
	}
	return &heartypb.ListResponse{Success: true, Message: msg}, nil
}

// Destroy implements heartypb.HeartyStoreServer.
func (s *Server) Destroy(ctx context.Context, req *heartypb.DestroyRequest) (*heartypb.DestroyResponse, error) {
	storeID, err := parseStoreID(req.StoreName)
	if err != nil {
		return &heartypb.DestroyResponse{Success: false, Message: err.Error()}, nil
	}

	if !s.mu.TryLock() {
		metrics.BusyRejectionsTotal.WithLabelValues("Destroy").Inc()
		return &heartypb.DestroyResponse{Success: false, Message: busyMessage}, nil
	}
	defer s.mu.Unlock()

	if err := s.eng.Destroy(storeID); err != nil {
		return &heartypb.DestroyResponse{Success: false, Message: errMessage(err)}, nil
	}
	return &heartypb.DestroyResponse{Success: true, Message: fmt.Sprintf("destroyed store %d", storeID)}, nil
}

// Cache implements the ownership-arbitration side of the coherence
// protocol. The request's peer_address identifies the caller: it is the
// address of the caller's own eviction listener, so the entry recorded
// here is exactly what the dial-back below can reach.
func (s *Server) Cache(ctx context.Context, req *heartypb.CacheRequest) (*heartypb.CacheResponse, error) {
	peerAddr := req.PeerAddress
	if peerAddr == "" {
		return &heartypb.CacheResponse{Success: false, Message: "caller did not advertise an eviction address"}, nil
	}

	if !s.mu.TryLock() {
		metrics.BusyRejectionsTotal.WithLabelValues("Cache").Inc()
		return &heartypb.CacheResponse{Success: false, Message: busyMessage}, nil
	}
	defer s.mu.Unlock()

	owner, owned := s.owners[req.FileID]
	if !owned || owner == peerAddr {
		s.owners[req.FileID] = peerAddr
		metrics.CacheOwnershipTransfersTotal.WithLabelValues("confirmed").Inc()
		return &heartypb.CacheResponse{Success: true, Message: "Cache ownership confirmed"}, nil
	}

	timer := metrics.NewTimer()
	client, closer, err := s.dialEvictor(ctx, owner)
	if err != nil {
		metrics.CacheOwnershipTransfersTotal.WithLabelValues("dial_failed").Inc()
		return &heartypb.CacheResponse{Success: false, Message: "Failed to evict from current owner"}, nil
	}
	defer closer()

	evictCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	resp, err := client.Evict(evictCtx, &heartypb.EvictRequest{FileID: req.FileID})
	timer.ObserveDuration(metrics.EvictionRoundtripSeconds)
	if err != nil || !resp.Success {
		metrics.CacheOwnershipTransfersTotal.WithLabelValues("evict_failed").Inc()
		return &heartypb.CacheResponse{Success: false, Message: "Failed to evict from current owner"}, nil
	}

	s.owners[req.FileID] = peerAddr
	metrics.CacheOwnershipTransfersTotal.WithLabelValues("transferred").Inc()
	peerLogger := log.WithPeer(peerAddr)
	peerLogger.Info().Str("object_id", req.FileID).Str("previous_owner", owner).Msg("cache ownership transferred")
	return &heartypb.CacheResponse{Success: true, Message: "Cache ownership transferred"}, nil
}

// Evict implements the server-side bookkeeping half of the "Evict" RPC the
// original service definition shares with the client's eviction listener:
// it simply clears this server's ownership entry. It is not on the
// dial-back path (that goes to the cache agent's separate
// heartypb.EvictionServer); it exists for a client to proactively release
// ownership it no longer wants to hold.
func (s *Server) Evict(ctx context.Context, req *heartypb.EvictRequest) (*heartypb.EvictResponse, error) {
	if !s.mu.TryLock() {
		metrics.BusyRejectionsTotal.WithLabelValues("Evict").Inc()
		return &heartypb.EvictResponse{Success: false, Message: busyMessage}, nil
	}
	defer s.mu.Unlock()

	delete(s.owners, req.FileID)
	return &heartypb.EvictResponse{Success: true, Message: "File evicted successfully"}, nil
}
