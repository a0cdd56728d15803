// Package handlers provides gRPC and HTTP server implementations for
// serving the PlacementService, bridging the transport layer and the
// workflow operations, translating between JSON payloads and domain models.
package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gartstein/placement/internal/placement/auth"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HTTPOptions configures the HTTP gateway.
type HTTPOptions struct {
	JWTSecret      string
	RequestTimeout time.Duration
	Limiter        Limiter
	RateLimit      int
	RateWindow     time.Duration
	// TrustProxy keys anonymous callers by X-Forwarded-For instead of the peer address.
	TrustProxy     bool
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	gatewayConn  *grpc.ClientConn
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	s := &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		health:       health.NewServer(),
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)
	return s
}

// RegisterGRPCHandler registers the gRPC handler for the PlacementService.
func (s *Server) RegisterGRPCHandler(h PlacementServer) {
	RegisterPlacementServiceServer(s.grpcServer, h)
	s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
}

// RegisterHTTPGateway sets up the HTTP reverse-proxy with the specified dial options.
func (s *Server) RegisterHTTPGateway(ctx context.Context, dialOpts []grpc.DialOption, opts HTTPOptions) error {
	conn, err := grpc.NewClient(s.grpcEndpoint, dialOpts...)
	if err != nil {
		return fmt.Errorf("dial gRPC endpoint: %w", err)
	}
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	s.gatewayConn = conn

	mux := runtime.NewServeMux(
		runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)),
	)
	if err := registerRoutes(mux, conn, s.logger); err != nil {
		return err
	}

	s.httpServer.Handler = wrapHTTP(mux, opts, s.logger)
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// wrapHTTP applies the HTTP middleware chain. The request id is assigned
// first and the rate limit is checked last, once the caller is known.
func wrapHTTP(next http.Handler, opts HTTPOptions, logger *zap.Logger) http.Handler {
	handler := RateLimit(opts.Limiter, CallerKey(opts.TrustProxy), opts.RateLimit, opts.RateWindow)(next)
	handler = auth.HTTPMiddleware(handler, opts.JWTSecret, isPublicRequest)
	handler = withTimeout(handler, opts.RequestTimeout)
	return withRequestID(handler, logger)
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	// Start gRPC Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	// Start HTTP Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	s.grpcServer.GracefulStop()
	if s.gatewayConn != nil {
		_ = s.gatewayConn.Close()
	}

	s.logger.Info("Servers stopped")
}
