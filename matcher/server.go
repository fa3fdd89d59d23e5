package matcher

import (
	"context"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	stdesc "github.com/jamesainslie/go-stdesc"
)

// Factory builds a fresh detector from its parameters.
type Factory func(params Params) (stdesc.Matcher, error)

// matcherServer is the handler type of the gRPC service.
type matcherServer interface {
	configure(ctx context.Context, req *configureRequest) (*configureResponse, error)
	processNewScan(ctx context.Context, req *scanRequest) (*scanResponse, error)
}

// server serializes calls into a single stateful detector. Configure
// replaces the detector, discarding its map.
type server struct {
	factory Factory
	logger  *slog.Logger

	mu      sync.Mutex
	current stdesc.Matcher
}

// RegisterServer exposes detectors built by factory on s.
func RegisterServer(s *grpc.Server, factory Factory, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.RegisterService(&serviceDesc, &server{factory: factory, logger: logger})
}

func (s *server) configure(_ context.Context, req *configureRequest) (*configureResponse, error) {
	m, err := s.factory(req.Params)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "configure: %v", err)
	}

	s.mu.Lock()
	s.current = m
	s.mu.Unlock()

	s.logger.Info("matcher configured", "params", len(req.Params))
	return &configureResponse{}, nil
}

func (s *server) processNewScan(ctx context.Context, req *scanRequest) (*scanResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, status.Error(codes.FailedPrecondition, "matcher not configured")
	}
	match, score, err := s.current.ProcessNewScan(ctx, req.Cloud, req.Index)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "scan %d: %v", req.Index, err)
	}
	return &scanResponse{Match: match, Score: score}, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*matcherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Configure", Handler: configureHandler},
		{MethodName: "ProcessNewScan", Handler: processNewScanHandler},
	},
	Metadata: "stdesc/matcher.proto",
}

func configureHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(configureRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(matcherServer).configure(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodConfigure}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(matcherServer).configure(ctx, req.(*configureRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func processNewScanHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(scanRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(matcherServer).processNewScan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodProcessNewScan}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(matcherServer).processNewScan(ctx, req.(*scanRequest))
	}
	return interceptor(ctx, in, info, handler)
}
