package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/simaogato/stocksim-backend/internal/adapter/grpc"
	"github.com/simaogato/stocksim-backend/internal/adapter/httpapi"
	"github.com/simaogato/stocksim-backend/internal/app"
	"github.com/simaogato/stocksim-backend/internal/config"
	"github.com/simaogato/stocksim-backend/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/stocksim.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// 2. Open the store and wire services
	ctx := context.Background()
	application, err := app.New(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			zlog.Warn("failed to close application", zap.Error(err))
		}
	}()

	if err := application.Store.Migrate(ctx); err != nil {
		zlog.Fatal("failed to migrate store", zap.Error(err))
	}
	zlog.Info("document store ready", zap.String("driver", cfg.Store.Driver))

	// 3. Start gRPC server
	verifier := grpcadapter.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.MetricsInterceptor(),
			grpcadapter.AuthInterceptor(verifier, grpcadapter.PublicMethods...),
		),
	)
	grpcadapter.RegisterStockSimServer(grpcServer, grpcadapter.NewServer(
		application.Quotes,
		application.Search,
		application.Accounts,
		application.Portfolio,
		application.Games,
	))

	grpcAddr := fmt.Sprintf(":%d", cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		zlog.Fatal("failed to listen", zap.String("addr", grpcAddr), zap.Error(err))
	}

	go func() {
		zlog.Info("gRPC server listening", zap.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			zlog.Fatal("failed to serve gRPC server", zap.Error(err))
		}
	}()

	// 4. Start HTTP gateway
	httpAddr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	h := server.Default(server.WithHostPorts(httpAddr))
	httpapi.RegisterRoutes(h, application.Quotes, application.Search, zlog.Named("http"))

	go func() {
		zlog.Info("HTTP gateway listening", zap.String("addr", httpAddr))
		if err := h.Run(); err != nil {
			zlog.Error("HTTP gateway stopped", zap.Error(err))
		}
	}()

	// 5. Start metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Info("metrics server listening", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(zlog)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := h.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("HTTP gateway shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("metrics server shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	zlog.Info("servers stopped")
}

// waitForShutdown waits for SIGTERM or SIGINT
func waitForShutdown(zlog *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	zlog.Info("shutting down gracefully", zap.String("signal", sig.String()))
}
