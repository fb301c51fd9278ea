package receiver

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

const transportGRPC = "grpc"

// GRPCReceiver handles OTLP gRPC requests.
type GRPCReceiver struct {
	colmetricspb.UnimplementedMetricsServiceServer
	pipeline *Pipeline
	server   *grpc.Server
	addr     string
	logger   *slog.Logger
}

// NewGRPCReceiver creates a new gRPC receiver.
func NewGRPCReceiver(addr string, pipeline *Pipeline, logger *slog.Logger) *GRPCReceiver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &GRPCReceiver{
		pipeline: pipeline,
		addr:     addr,
		logger:   logger,
		server:   grpc.NewServer(),
	}

	// Register OTLP services with wrapper types to avoid method name conflicts
	colmetricspb.RegisterMetricsServiceServer(r.server, r)
	coltracepb.RegisterTraceServiceServer(r.server, &traceService{GRPCReceiver: r})
	collogspb.RegisterLogsServiceServer(r.server, &logsService{GRPCReceiver: r})

	// Register reflection service for debugging with grpcurl
	reflection.Register(r.server)

	return r
}

// Start listens on the configured address and serves.
func (r *GRPCReceiver) Start() error {
	lis, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return r.Serve(lis)
}

// Serve serves on an existing listener.
func (r *GRPCReceiver) Serve(lis net.Listener) error {
	r.logger.Info("OTLP gRPC receiver listening", "addr", lis.Addr().String())
	return r.server.Serve(lis)
}

// Shutdown gracefully shuts down the gRPC server.
func (r *GRPCReceiver) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.server.Stop()
		return ctx.Err()
	}
}

// Export implements the MetricsService Export RPC.
func (r *GRPCReceiver) Export(ctx context.Context, req *colmetricspb.ExportMetricsServiceRequest) (*colmetricspb.ExportMetricsServiceResponse, error) {
	if err := r.pipeline.Metrics(ctx, transportGRPC, req); err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to analyze metrics: %v", err)
	}
	return &colmetricspb.ExportMetricsServiceResponse{}, nil
}

// traceService implements TraceService; separate type to avoid method name conflicts
type traceService struct {
	coltracepb.UnimplementedTraceServiceServer
	*GRPCReceiver
}

// Export implements the TraceService Export RPC.
func (s *traceService) Export(ctx context.Context, req *coltracepb.ExportTraceServiceRequest) (*coltracepb.ExportTraceServiceResponse, error) {
	if err := s.pipeline.Traces(ctx, transportGRPC, req); err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to analyze traces: %v", err)
	}
	return &coltracepb.ExportTraceServiceResponse{}, nil
}

// logsService implements LogsService; separate type to avoid method name conflicts
type logsService struct {
	collogspb.UnimplementedLogsServiceServer
	*GRPCReceiver
}

// Export implements the LogsService Export RPC.
func (s *logsService) Export(ctx context.Context, req *collogspb.ExportLogsServiceRequest) (*collogspb.ExportLogsServiceResponse, error) {
	if err := s.pipeline.Logs(ctx, transportGRPC, req); err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to analyze logs: %v", err)
	}
	return &collogspb.ExportLogsServiceResponse{}, nil
}
