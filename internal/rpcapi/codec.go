// Package rpcapi binds the gateway and its backing clients onto
// google.golang.org/grpc without generated protobuf stubs: messages are
// plain Go structs serialized with a JSON codec, and the server side is
// registered through a hand-written grpc.ServiceDesc.
package rpcapi

import "encoding/json"

// JSONCodecName is the content-subtype this codec registers under.
const JSONCodecName = "json"

// JSONCodec implements encoding.Codec by marshaling messages as JSON.
// Using a codec (instead of a wire format tied to generated .pb.go
// types) is what lets the client and server exchange plain structs
// through grpc-go's low-level ClientConn.Invoke/NewStream API.
type JSONCodec struct{}

// Name returns the codec's registered name.
func (JSONCodec) Name() string { return JSONCodecName }

// Marshal encodes v as JSON.
func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
