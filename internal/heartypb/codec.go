package heartypb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec under the name "proto", the
// content-subtype grpc-go picks when a call specifies none. Registering it
// under that name means every call made through this package's stubs -
// which never set a content-subtype - is marshaled by this codec instead of
// requiring a real protobuf Marshal/Unmarshal on generated message types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "proto"
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
