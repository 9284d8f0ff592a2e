package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/export"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the gRPC health service when GRPC_ADDR is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *common.Config, logger *zap.Logger) error {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", zap.Error(err))
		return err
	}
	defer db.Close()

	expenses := repository.NewExpenseRepository(db, logger)
	srv := server.New(logger, expenses, buildPipeline(cfg, logger), export.NewService(expenses, logger), db, cfg.Extraction.MaxUploadBytes)
	httpSrv := server.NewHTTPServer(cfg.Server.HTTPAddr, srv.Router())

	var (
		grpcServer *grpc.Server
		grpcLis    net.Listener
	)
	if cfg.Server.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
		}
		grpcServer = grpc.NewServer()
		reflection.Register(grpcServer)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("expense-tracker listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	if grpcServer != nil {
		hs := server.NewHealthServer(db, cfg.Server.HealthCheckInterval, logger)
		hs.Register(grpcServer)

		g.Go(func() error {
			hs.Run(gctx)
			return nil
		})
		g.Go(func() error {
			logger.Info("grpc health listening", zap.String("addr", cfg.Server.GRPCAddr))
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc serve: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	return g.Wait()
}
