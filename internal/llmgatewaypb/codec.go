package llmgatewaypb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is registered with grpc-go's codec registry in place of
// "proto", so a grpc.ClientConn dialed against this service carries JSON
// payloads over HTTP/2 frames instead of protobuf wire format. Registered
// once via init() in this package, mirroring how generated proto packages
// register the "proto" codec as a side effect of import.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("llmgatewaypb: marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("llmgatewaypb: unmarshal: %w", err)
	}
	return nil
}
