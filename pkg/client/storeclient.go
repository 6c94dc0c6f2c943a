package client

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cuemby/hearty/internal/heartypb"
)

// StoreClient is a thin wrapper over the generated-shape heartypb stub,
// dialing the store server over plain (insecure) gRPC; the protocol
// carries no multi-tenant authentication.
type StoreClient struct {
	conn      *grpc.ClientConn
	rpc       heartypb.HeartyStoreClient
	evictAddr string
}

// Dial connects to a store server at addr. evictAddr, when non-empty, is
// the address of this process's eviction listener; every Cache call
// advertises it so the server knows where to dial when another client
// demands ownership of an object this process holds. Processes without an
// eviction listener (the CLI) pass "".
func Dial(addr, evictAddr string) (*StoreClient, error) {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &StoreClient{conn: conn, rpc: heartypb.NewHeartyStoreClient(conn), evictAddr: evictAddr}, nil
}

// Close releases the underlying connection.
func (c *StoreClient) Close() error {
	return c.conn.Close()
}

// Init asks the server to create storeName.
func (c *StoreClient) Init(ctx context.Context, storeName string) (*heartypb.InitResponse, error) {
	return c.rpc.Init(ctx, &heartypb.InitRequest{StoreName: storeName})
}

// Put writes content under filePath in storeName, returning the assigned
// object id on success.
func (c *StoreClient) Put(ctx context.Context, storeName, filePath string, content []byte) (*heartypb.PutResponse, error) {
	return c.rpc.Put(ctx, &heartypb.PutRequest{StoreName: storeName, FilePath: filePath, FileContent: content})
}

// Get retrieves the object identified by fileID in storeName, concatenating
// the streamed chunks into a single byte slice.
func (c *StoreClient) Get(ctx context.Context, storeName, fileID string) ([]byte, error) {
	stream, err := c.rpc.Get(ctx, &heartypb.GetRequest{StoreName: storeName, FileIdentifier: fileID})
	if err != nil {
		return nil, err
	}

	var content []byte
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, fmt.Errorf("client: get %s/%s: %s", storeName, fileID, resp.Message)
		}
		content = append(content, resp.FileContent...)
	}
	return content, nil
}

// List returns the server's pre-formatted store listing.
func (c *StoreClient) List(ctx context.Context) (*heartypb.ListResponse, error) {
	return c.rpc.List(ctx, &heartypb.ListRequest{})
}

// Destroy asks the server to remove storeName entirely.
func (c *StoreClient) Destroy(ctx context.Context, storeName string) (*heartypb.DestroyResponse, error) {
	return c.rpc.Destroy(ctx, &heartypb.DestroyRequest{StoreName: storeName})
}

// Cache asks the server to grant (or confirm) ownership of fileID to this
// client, advertising the eviction address the connection was dialed with.
func (c *StoreClient) Cache(ctx context.Context, fileID string) (*heartypb.CacheResponse, error) {
	return c.rpc.Cache(ctx, &heartypb.CacheRequest{FileID: fileID, PeerAddress: c.evictAddr})
}
