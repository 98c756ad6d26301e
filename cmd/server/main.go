// Package main is the entry point for the CRUD gateway service.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/makkalot/eskit/internal/app"
	"github.com/makkalot/eskit/internal/config"
	"github.com/makkalot/eskit/internal/pkg/logger"
	"github.com/makkalot/eskit/internal/rpcapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting crud gateway",
		zap.String("addr", cfg.Server.Addr),
		zap.String("health_addr", cfg.Server.HealthAddr),
		zap.String("log_level", cfg.Log.Level),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	encoding.RegisterCodec(rpcapi.JSONCodec{})

	application, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Shutdown() //nolint:errcheck // best-effort on exit, already logged internally

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}

	grpcServer := grpc.NewServer(grpc.ForceServerCodec(rpcapi.JSONCodec{}))
	rpcapi.Register(grpcServer, application.Gateway)

	healthServer := &http.Server{
		Addr:    cfg.Server.HealthAddr,
		Handler: application.Health.Handler(),
	}

	errCh := make(chan error, 2)
	go func() { //nolint:naked-goroutine // main gRPC server goroutine is exempt
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() { //nolint:naked-goroutine // main health server goroutine is exempt
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("health serve: %w", err)
		}
	}()

	logger.Info("crud gateway listening",
		zap.String("grpc_addr", cfg.Server.Addr),
		zap.String("health_addr", cfg.Server.HealthAddr),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down...")
	grpcServer.GracefulStop()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", zap.Error(err))
	}

	logger.Info("crud gateway stopped gracefully")
	return nil
}
