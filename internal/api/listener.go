package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealthServer returns a gRPC server exposing grpc.health.v1. The overall
// status ("" service) is SERVING when ready is true and NOT_SERVING otherwise,
// so orchestrators can tell a failed quiz load from a healthy process.
func NewHealthServer(ready bool) (*grpc.Server, *health.Server) {
	hs := health.NewServer()
	status := healthpb.HealthCheckResponse_SERVING
	if !ready {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

// Serve accepts HTTP and gRPC on one listener until ctx is cancelled, then
// shuts both down gracefully. gs may be nil to serve HTTP only.
//
// gRPC clients are recognised by their HTTP/2 content-type header; every other
// connection is handed to srv.
func Serve(ctx context.Context, lis net.Listener, srv *http.Server, gs *grpc.Server, logger *slog.Logger) error {
	if gs == nil {
		return serveHTTPOnly(ctx, lis, srv, logger)
	}

	m := cmux.New(lis)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	errc := make(chan error, 3)
	go func() {
		if err := gs.Serve(grpcL); err != nil && !isClosedErr(err) {
			errc <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		if err := srv.Serve(httpL); err != nil && !errors.Is(err, http.ErrServerClosed) && !isClosedErr(err) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := m.Serve(); err != nil && !isClosedErr(err) {
			errc <- fmt.Errorf("cmux: %w", err)
		}
	}()

	logger.Info("server listening", "addr", lis.Addr().String(), "grpc_health", true)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errc:
		m.Close()
		gs.Stop()
		return err
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	gs.GracefulStop()
	m.Close()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func serveHTTPOnly(ctx context.Context, lis net.Listener, srv *http.Server, logger *slog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("server listening", "addr", lis.Addr().String(), "grpc_health", false)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// isClosedErr reports the errors listeners return once cmux or the server
// has been closed on purpose.
func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, cmux.ErrListenerClosed) ||
		errors.Is(err, cmux.ErrServerClosed) ||
		errors.Is(err, grpc.ErrServerStopped)
}
