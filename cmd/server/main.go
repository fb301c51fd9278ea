// Package main is the entry point for the rootcause analysis server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fidde/rootcause/internal/analysis"
	"github.com/fidde/rootcause/internal/api"
	"github.com/fidde/rootcause/internal/config"
	"github.com/fidde/rootcause/internal/llm"
	"github.com/fidde/rootcause/internal/receiver"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}
	logger := rt.NewLogger()
	slog.SetDefault(logger)

	logger.Info("Starting rootcause server", "codebase", rt.CodebaseDir)

	svc, err := analysis.FromConfig(rt, logger)
	if err != nil {
		return err
	}

	apiOpts := []api.Option{api.WithLogger(logger)}
	analyst, err := llm.New(rt.LLM, llm.WithLogger(logger))
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Info("No language model configured, /api/v1/explain disabled")
	case err != nil:
		return fmt.Errorf("creating LLM client: %w", err)
	default:
		apiOpts = append(apiOpts, api.WithAnalyst(analyst))
	}

	apiServer := api.NewServer(rt.APIAddr, svc, apiOpts...)

	var (
		httpReceiver *receiver.HTTPReceiver
		grpcReceiver *receiver.GRPCReceiver
	)
	if rt.EnableOTLP {
		pipeline := receiver.NewPipeline(svc, nil, logger)
		httpReceiver = receiver.NewHTTPReceiver(rt.OTLPHTTPAddr, pipeline, logger)
		grpcReceiver = receiver.NewGRPCReceiver(rt.OTLPGRPCAddr, pipeline, logger)
	}

	// Start pprof server for profiling (separate port)
	if rt.PprofAddr != "" {
		go func() {
			logger.Info("Starting pprof server", "url", "http://"+rt.PprofAddr+"/debug/pprof")
			if err := http.ListenAndServe(rt.PprofAddr, nil); err != nil {
				logger.Warn("pprof server error", "error", err)
			}
		}()
	}

	// Start servers in goroutines
	errChan := make(chan error, 3)

	go func() {
		logger.Info("Starting REST API server", "addr", rt.APIAddr)
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if rt.EnableOTLP {
		go func() {
			if err := httpReceiver.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("OTLP HTTP receiver error: %w", err)
			}
		}()
		go func() {
			if err := grpcReceiver.Start(); err != nil {
				errChan <- fmt.Errorf("OTLP gRPC receiver error: %w", err)
			}
		}()

		logger.Info("OTLP endpoints",
			"logs", "http://"+rt.OTLPHTTPAddr+"/v1/logs",
			"metrics", "http://"+rt.OTLPHTTPAddr+"/v1/metrics",
			"traces", "http://"+rt.OTLPHTTPAddr+"/v1/traces",
			"grpc", rt.OTLPGRPCAddr)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case serveErr = <-errChan:
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", "signal", sig.String())
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if rt.EnableOTLP {
		if err := httpReceiver.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error shutting down OTLP HTTP receiver", "error", err)
		}
		if err := grpcReceiver.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error shutting down OTLP gRPC receiver", "error", err)
		}
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Error shutting down API server", "error", err)
	}

	logger.Info("Shutdown complete")
	return serveErr
}
