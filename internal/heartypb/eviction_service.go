package heartypb

import (
	"context"

	"google.golang.org/grpc"
)

// EvictionServer is the interface implemented by the cache agent's
// eviction listener: a single Evict method the store server dials when
// another client demands ownership of an object this client holds.
type EvictionServer interface {
	Evict(context.Context, *EvictRequest) (*EvictResponse, error)
}

// EvictionClient is the stub the store server uses to dial a cache agent's
// eviction listener.
type EvictionClient interface {
	Evict(ctx context.Context, in *EvictRequest, opts ...grpc.CallOption) (*EvictResponse, error)
}

type evictionClient struct {
	cc grpc.ClientConnInterface
}

// NewEvictionClient wraps a connection dialed to a cache agent's eviction
// listener.
func NewEvictionClient(cc grpc.ClientConnInterface) EvictionClient {
	return &evictionClient{cc}
}

func (c *evictionClient) Evict(ctx context.Context, in *EvictRequest, opts ...grpc.CallOption) (*EvictResponse, error) {
	out := new(EvictResponse)
	if err := c.cc.Invoke(ctx, "/hearty.Eviction/Evict", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Eviction_Evict_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(EvictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EvictionServer).Evict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/hearty.Eviction/Evict"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EvictionServer).Evict(ctx, req.(*EvictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var evictionServiceDesc = grpc.ServiceDesc{
	ServiceName: "hearty.Eviction",
	HandlerType: (*EvictionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evict", Handler: _Eviction_Evict_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "heartypb/eviction.proto",
}

// RegisterEvictionServer registers a cache agent's eviction listener on s.
func RegisterEvictionServer(s grpc.ServiceRegistrar, srv EvictionServer) {
	s.RegisterService(&evictionServiceDesc, srv)
}
