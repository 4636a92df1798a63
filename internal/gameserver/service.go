package gameserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the game service.
const ServiceName = "delve.v1.GameService"

const (
	sessionMethod  = "/" + ServiceName + "/Session"
	snapshotMethod = "/" + ServiceName + "/Snapshot"
)

// GameService is the server API of delve.v1.GameService.
//
// Every message is a google.protobuf.Struct; the fields it carries are listed in
// messages.go.
type GameService interface {
	// Session joins a profile with the first client message, then accepts commands.
	// The server streams command results and every game event of the profile.
	Session(stream grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]) error
	// Snapshot returns the current run of a profile.
	Snapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterGameService registers srv with s.
//
// Precondition: s and srv must be non-nil.
func RegisterGameService(s grpc.ServiceRegistrar, srv GameService) {
	s.RegisterService(&GameServiceDesc, srv)
}

// GameServiceDesc describes delve.v1.GameService to grpc.
var GameServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Session", Handler: sessionHandler, ServerStreams: true, ClientStreams: true},
	},
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GameService).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: snapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GameService).Snapshot(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func sessionHandler(srv any, stream grpc.ServerStream) error {
	return srv.(GameService).Session(&grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// GameServiceClient calls delve.v1.GameService.
type GameServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewGameServiceClient returns a client bound to cc.
func NewGameServiceClient(cc grpc.ClientConnInterface) *GameServiceClient {
	return &GameServiceClient{cc: cc}
}

// Session opens the bidirectional session stream.
func (c *GameServiceClient) Session(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[structpb.Struct, structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &GameServiceDesc.Streams[0], sessionMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}, nil
}

// Snapshot fetches the current run of the profile named in req.
func (c *GameServiceClient) Snapshot(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, snapshotMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
