package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/accumate/docfilter/internal/core/api"
	"github.com/accumate/docfilter/internal/core/auth"
	"github.com/accumate/docfilter/internal/core/config"
	"github.com/accumate/docfilter/internal/core/db"
	"github.com/accumate/docfilter/internal/core/server"
	"github.com/accumate/docfilter/internal/filter"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC filter service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().Bool("descend-sequences", false, "search mappings inside lists during field lookup")
	serveCmd.Flags().Bool("audit-log", false, "append one JSON line per request under <data_dir>/audit")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	database, queries, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	authenticator := auth.NewAuthenticator(secrets, queries, logger)

	engine := filter.NewEngine(filter.WithDescendSequences(cfg.DescendSequences))
	store := db.NewDocumentStore(queries, logger)

	service, err := api.NewFilterService(engine, filter.DefaultRegistry(logger), store, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("Starting docfilter",
		zap.String("version", Version),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Bool("auth", authenticator.Enabled()),
		zap.Bool("descend_sequences", cfg.DescendSequences),
		zap.Bool("audit_log", cfg.AuditLog))

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return grpcServer.Shutdown(shutdownCtx)
	}
}

func applyServeFlags(cmd *cobra.Command, cfg *config.FilterAPIConfig) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("descend-sequences") {
		cfg.DescendSequences, _ = flags.GetBool("descend-sequences")
	}
	if flags.Changed("audit-log") {
		cfg.AuditLog, _ = flags.GetBool("audit-log")
	}
}
