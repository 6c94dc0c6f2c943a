// Package heartypb is the hand-authored equivalent of a protoc-gen-go-grpc
// output: plain request/response structs, a grpc.ServiceDesc per service,
// and typed client stubs, wired to real google.golang.org/grpc transport
// through a small codec registered under the "proto" content-subtype name.
//
// There is no .proto file behind this package. It exists because this
// environment cannot invoke protoc; everything protoc-gen-go and
// protoc-gen-go-grpc would otherwise generate is written by hand in the
// same shape they produce, so the rest of the module talks to a real
// grpc.Server and grpc.ClientConn exactly as it would against generated
// stubs.
package heartypb
