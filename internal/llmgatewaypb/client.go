package llmgatewaypb

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const (
	methodComplete       = "/" + ServiceName + "/Complete"
	methodCompleteStream = "/" + ServiceName + "/CompleteStream"
)

type client struct {
	cc grpc.ClientConnInterface
}

// NewLLMGatewayClient wraps a dialed *grpc.ClientConn, exactly as generated
// proto clients do (NewXClient(conn)).
func NewLLMGatewayClient(cc grpc.ClientConnInterface) LLMGatewayClient {
	return &client{cc: cc}
}

func (c *client) Complete(ctx context.Context, req *CompleteRequest, opts ...grpc.CallOption) (*CompleteResponse, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	resp := new(CompleteResponse)
	if err := c.cc.Invoke(ctx, methodComplete, req, resp, opts...); err != nil {
		return nil, fmt.Errorf("llmgatewaypb: Complete: %w", err)
	}
	return resp, nil
}

func (c *client) CompleteStream(ctx context.Context, req *CompleteRequest, opts ...grpc.CallOption) (StreamClient, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	desc := &grpc.StreamDesc{StreamName: "CompleteStream", ServerStreams: true}
	stream, err := c.cc.NewStream(ctx, desc, methodCompleteStream, opts...)
	if err != nil {
		return nil, fmt.Errorf("llmgatewaypb: CompleteStream: %w", err)
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, fmt.Errorf("llmgatewaypb: CompleteStream send: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("llmgatewaypb: CompleteStream close: %w", err)
	}
	return &streamClient{stream: stream}, nil
}

type streamClient struct {
	stream grpc.ClientStream
}

func (s *streamClient) Recv() (*StreamChunk, error) {
	chunk := new(StreamChunk)
	if err := s.stream.RecvMsg(chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

func (s *streamClient) CloseSend() error { return s.stream.CloseSend() }
