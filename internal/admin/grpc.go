package admin

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName      = "suggest.admin.v1.QueueAdmin"
	methodStats      = "/" + serviceName + "/Stats"
	methodClear      = "/" + serviceName + "/Clear"
	methodConfig     = "/" + serviceName + "/Config"
	surfaceGRPC      = "grpc"
	errConfirmNeeded = "clear requires confirm=true"
)

// QueueAdminServer is the server API for the QueueAdmin service. Messages
// are protobuf well-known types so no generated code is required.
type QueueAdminServer interface {
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Clear(context.Context, *wrapperspb.BoolValue) (*wrapperspb.Int64Value, error)
	Config(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// QueueAdminServiceDesc describes the QueueAdmin service for grpc.Server.RegisterService
var QueueAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QueueAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Stats", Handler: queueAdminStatsHandler},
		{MethodName: "Clear", Handler: queueAdminClearHandler},
		{MethodName: "Config", Handler: queueAdminConfigHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "suggest/admin/v1/admin.proto",
}

func queueAdminStatsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueueAdminServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodStats}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueueAdminServer).Stats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func queueAdminClearHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BoolValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueueAdminServer).Clear(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodClear}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueueAdminServer).Clear(ctx, req.(*wrapperspb.BoolValue))
	}
	return interceptor(ctx, in, info, handler)
}

func queueAdminConfigHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueueAdminServer).Config(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodConfig}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueueAdminServer).Config(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCServer implements QueueAdminServer
type GRPCServer struct {
	queue  Queue
	config ConfigSource
	audit  *AuditLogger
	logger *slog.Logger
}

// NewGRPCServer creates the gRPC admin service
func NewGRPCServer(q Queue, cfg ConfigSource, audit *AuditLogger, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = NewAuditLogger(logger)
	}
	return &GRPCServer{
		queue:  q,
		config: cfg,
		audit:  audit,
		logger: logger,
	}
}

// RegisterWithServer registers the admin service with a gRPC server
func (s *GRPCServer) RegisterWithServer(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&QueueAdminServiceDesc, s)
}

// Stats returns the queue snapshot
func (s *GRPCServer) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.audit.LogCall(ctx, &AuditEntry{Surface: surfaceGRPC, Operation: "stats"})

	m, err := toMap(s.queue.Stats())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build stats: %v", err)
	}
	return out, nil
}

// Clear empties the queue when confirmed and returns the number of removed requests
func (s *GRPCServer) Clear(ctx context.Context, confirm *wrapperspb.BoolValue) (*wrapperspb.Int64Value, error) {
	s.audit.LogCall(ctx, &AuditEntry{Surface: surfaceGRPC, Operation: "clear"})

	if !confirm.GetValue() {
		s.audit.LogResult(ctx, &AuditEntry{Surface: surfaceGRPC, Operation: "clear", ErrorMsg: errConfirmNeeded})
		return nil, status.Error(codes.FailedPrecondition, errConfirmNeeded)
	}

	cleared := s.queue.Clear()
	s.audit.LogResult(ctx, &AuditEntry{Surface: surfaceGRPC, Operation: "clear", Cleared: cleared})
	return wrapperspb.Int64(int64(cleared)), nil
}

// Config returns the suggestion client configuration
func (s *GRPCServer) Config(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.audit.LogCall(ctx, &AuditEntry{Surface: surfaceGRPC, Operation: "config"})

	m, err := toMap(configView(s.config.Info()))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build config: %v", err)
	}
	return out, nil
}

// Client calls the QueueAdmin service
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient creates an admin client over conn
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Stats fetches the queue snapshot
func (c *Client) Stats(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodStats, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear empties the queue; confirm must be true
func (c *Client) Clear(ctx context.Context, confirm bool, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.conn.Invoke(ctx, methodClear, wrapperspb.Bool(confirm), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

// Config fetches the suggestion client configuration
func (c *Client) Config(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodConfig, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
