package heartypb

import (
	"context"

	"google.golang.org/grpc"
)

// HeartyStoreServer is the interface a store service implementation
// satisfies.
type HeartyStoreServer interface {
	Init(context.Context, *InitRequest) (*InitResponse, error)
	Put(context.Context, *PutRequest) (*PutResponse, error)
	Get(*GetRequest, HeartyStore_GetServer) error
	List(context.Context, *ListRequest) (*ListResponse, error)
	Destroy(context.Context, *DestroyRequest) (*DestroyResponse, error)
	Cache(context.Context, *CacheRequest) (*CacheResponse, error)
	Evict(context.Context, *EvictRequest) (*EvictResponse, error)
}

// HeartyStoreClient is the interface implemented by the generated client
// stub, mirroring what protoc-gen-go-grpc would emit for a 7-method
// service with one server-streaming RPC (Get).
type HeartyStoreClient interface {
	Init(ctx context.Context, in *InitRequest, opts ...grpc.CallOption) (*InitResponse, error)
	Put(ctx context.Context, in *PutRequest, opts ...grpc.CallOption) (*PutResponse, error)
	Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (HeartyStore_GetClient, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error)
	Destroy(ctx context.Context, in *DestroyRequest, opts ...grpc.CallOption) (*DestroyResponse, error)
	Cache(ctx context.Context, in *CacheRequest, opts ...grpc.CallOption) (*CacheResponse, error)
	Evict(ctx context.Context, in *EvictRequest, opts ...grpc.CallOption) (*EvictResponse, error)
}

type heartyStoreClient struct {
	cc grpc.ClientConnInterface
}

// NewHeartyStoreClient wraps an established connection with the typed
// store client stub.
func NewHeartyStoreClient(cc grpc.ClientConnInterface) HeartyStoreClient {
	return &heartyStoreClient{cc}
}

func (c *heartyStoreClient) Init(ctx context.Context, in *InitRequest, opts ...grpc.CallOption) (*InitResponse, error) {
	out := new(InitResponse)
	if err := c.cc.Invoke(ctx, "/hearty.HeartyStore/Init", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *heartyStoreClient) Put(ctx context.Context, in *PutRequest, opts ...grpc.CallOption) (*PutResponse, error) {
	out := new(PutResponse)
	if err := c.cc.Invoke(ctx, "/hearty.HeartyStore/Put", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *heartyStoreClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	out := new(ListResponse)
	if err := c.cc.Invoke(ctx, "/hearty.HeartyStore/List", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *heartyStoreClient) Destroy(ctx context.Context, in *DestroyRequest, opts ...grpc.CallOption) (*DestroyResponse, error) {
	out := new(DestroyResponse)
	if err := c.cc.Invoke(ctx, "/hearty.HeartyStore/Destroy", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *heartyStoreClient) Cache(ctx context.Context, in *CacheRequest, opts ...grpc.CallOption) (*CacheResponse, error) {
	out := new(CacheResponse)
	if err := c.cc.Invoke(ctx, "/hearty.HeartyStore/Cache", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *heartyStoreClient) Evict(ctx context.Context, in *EvictRequest, opts ...grpc.CallOption) (*EvictResponse, error) {
	out := new(EvictResponse)
	if err := c.cc.Invoke(ctx, "/hearty.HeartyStore/Evict", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *heartyStoreClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (HeartyStore_GetClient, error) {
	stream, err := c.cc.NewStream(ctx, &heartyStoreServiceDesc.Streams[0], "/hearty.HeartyStore/Get", opts...)
	if err != nil {
		return nil, err
	}
	x := &heartyStoreGetClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// HeartyStore_GetClient is the receive side of a streamed Get call.
type HeartyStore_GetClient interface {
	Recv() (*GetResponse, error)
	grpc.ClientStream
}

type heartyStoreGetClient struct {
	grpc.ClientStream
}

func (x *heartyStoreGetClient) Recv() (*GetResponse, error) {
	m := new(GetResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// HeartyStore_GetServer is the send side of a streamed Get call, passed to
// HeartyStoreServer.Get.
type HeartyStore_GetServer interface {
	Send(*GetResponse) error
	grpc.ServerStream
}

type heartyStoreGetServer struct {
	grpc.ServerStream
}

func (x *heartyStoreGetServer) Send(m *GetResponse) error {
	return x.ServerStream.SendMsg(m)
}

func _HeartyStore_Init_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HeartyStoreServer).Init(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/hearty.HeartyStore/Init"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HeartyStoreServer).Init(ctx, req.(*InitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HeartyStore_Put_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HeartyStoreServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/hearty.HeartyStore/Put"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HeartyStoreServer).Put(ctx, req.(*PutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HeartyStore_List_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HeartyStoreServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/hearty.HeartyStore/List"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HeartyStoreServer).List(ctx, req.(*ListRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HeartyStore_Destroy_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DestroyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HeartyStoreServer).Destroy(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/hearty.HeartyStore/Destroy"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HeartyStoreServer).Destroy(ctx, req.(*DestroyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HeartyStore_Cache_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CacheRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HeartyStoreServer).Cache(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/hearty.HeartyStore/Cache"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HeartyStoreServer).Cache(ctx, req.(*CacheRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HeartyStore_Evict_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(EvictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HeartyStoreServer).Evict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/hearty.HeartyStore/Evict"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(HeartyStoreServer).Evict(ctx, req.(*EvictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HeartyStore_Get_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(GetRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(HeartyStoreServer).Get(m, &heartyStoreGetServer{stream})
}

// heartyStoreServiceDesc is the grpc.ServiceDesc a protoc-gen-go-grpc build
// of this surface would register; RegisterHeartyStoreServer and
// NewHeartyStoreClient are built against it.
var heartyStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: "hearty.HeartyStore",
	HandlerType: (*HeartyStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Init", Handler: _HeartyStore_Init_Handler},
		{MethodName: "Put", Handler: _HeartyStore_Put_Handler},
		{MethodName: "List", Handler: _HeartyStore_List_Handler},
		{MethodName: "Destroy", Handler: _HeartyStore_Destroy_Handler},
		{MethodName: "Cache", Handler: _HeartyStore_Cache_Handler},
		{MethodName: "Evict", Handler: _HeartyStore_Evict_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Get",
			Handler:       _HeartyStore_Get_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "heartypb/store.proto",
}

// RegisterHeartyStoreServer registers srv on s.
func RegisterHeartyStoreServer(s grpc.ServiceRegistrar, srv HeartyStoreServer) {
	s.RegisterService(&heartyStoreServiceDesc, srv)
}
