package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/AltairaLabs/codegen-suggest/internal/admin"
	"github.com/AltairaLabs/codegen-suggest/internal/api"
	"github.com/AltairaLabs/codegen-suggest/internal/channel"
	"github.com/AltairaLabs/codegen-suggest/internal/config"
	"github.com/AltairaLabs/codegen-suggest/internal/gateway"
	"github.com/AltairaLabs/codegen-suggest/internal/queue"
	"github.com/AltairaLabs/codegen-suggest/internal/session"
	"github.com/AltairaLabs/codegen-suggest/internal/suggest"
	"github.com/AltairaLabs/codegen-suggest/internal/suggest/gemini"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the suggestion service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if debug {
				cfg.Log.Debug = true
			}

			logger, closeLog, err := newLogger(cfg.Log, os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

// unconfiguredGenerator stands in when no API key is set. The client
// rejects every request before reaching it.
var unconfiguredGenerator = suggest.GeneratorFunc(func(context.Context, string, string) (string, error) {
	return "", errors.New("suggestion service API key is not configured")
})

// serve wires every component and blocks until ctx is cancelled or a
// server fails
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Starting suggestd",
		"version", appVersion,
		"addr", cfg.Server.Addr,
		"admin_enabled", cfg.Admin.Enabled,
		"model", cfg.Suggest.Model,
	)

	users, err := session.LoadUsers(cfg.Session.UsersFile)
	if err != nil {
		return err
	}

	var generator suggest.Generator = unconfiguredGenerator
	if cfg.Suggest.APIKey != "" {
		g, err := gemini.NewGenerator(ctx, cfg.Suggest.APIKey)
		if err != nil {
			return err
		}
		generator = g
	} else {
		logger.Warn("No suggestion service API key configured; every request will fail")
	}

	client := suggest.NewClient(generator, cfg.Suggest, logger)
	hub := channel.NewHub(cfg.Server, logger)
	q := queue.New(client, hub, logger, cfg.Queue)
	sessions := session.NewStore(users, cfg.Session, logger)
	hub.SetHandler(gateway.New(q, sessions, hub, logger))

	apiServer := api.NewServer(sessions, q, client, hub, cfg.Server.AllowedOrigins, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var (
		grpcServer *grpc.Server
		grpcLis    net.Listener
		mcpServer  *admin.MCPServer
	)
	if cfg.Admin.Enabled {
		audit := admin.NewAuditLogger(logger)
		grpcServer = grpc.NewServer()
		admin.NewGRPCServer(q, client, audit, logger).RegisterWithServer(grpcServer)
		mcpServer = admin.NewMCPServer(admin.MCPConfig{Name: serviceName + "-admin", Version: appVersion}, q, client, audit, logger)

		listenConfig := net.ListenConfig{}
		grpcLis, err = listenConfig.Listen(ctx, "tcp", cfg.Admin.GRPCAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Admin.GRPCAddr, err)
		}
	}

	q.Start()
	sessions.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcServer != nil {
		g.Go(func() error {
			logger.Info("Starting admin gRPC server", "addr", grpcLis.Addr().String())
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("admin grpc server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			if err := mcpServer.ServeHTTP(cfg.Admin.MCPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin mcp server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully")
		return shutdown(logger, httpServer, grpcServer, mcpServer, hub, q, sessions)
	})

	err = g.Wait()
	logger.Info("suggestd shutdown complete")
	return err
}

func shutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	mcpServer *admin.MCPServer,
	hub *channel.Hub,
	q *queue.Queue,
	sessions *session.Store,
) error {
	var errs *multierror.Error

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := httpServer.Shutdown(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if mcpServer != nil {
		if err := mcpServer.Shutdown(ctx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("mcp shutdown: %w", err))
		}
	}

	if grpcServer != nil {
		stopGRPC(logger, grpcServer)
	}

	q.Stop()
	sessions.Stop()

	return errs.ErrorOrNil()
}

// stopGRPC stops the server gracefully, forcing a stop after the shutdown timeout
func stopGRPC(logger *slog.Logger, grpcServer *grpc.Server) {
	shutdownComplete := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		logger.Info("gRPC server stopped gracefully")
	case <-time.After(config.DefaultShutdownTimeout):
		logger.Warn("Graceful shutdown timeout, forcing stop")
		grpcServer.Stop()
		<-shutdownComplete
	}
}
