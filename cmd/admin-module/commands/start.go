package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artstore/artstore/internal/logger"
	"github.com/artstore/artstore/internal/telemetry"
	"github.com/artstore/artstore/pkg/adminmodule"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the admin-module server",
	Long: `Start the admin-module server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/artstore/admin-module.yaml.

Examples:
  admin-module start
  admin-module start --config /etc/artstore/admin-module.yaml
  AUTH_LOGGING_LEVEL=DEBUG admin-module start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(cfg.loggerConfig()); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, cfg.telemetryConfig(Version))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	logger.Info("starting admin-module", "version", Version, "store_type", cfg.Store.Type)

	svc, err := adminmodule.New(ctx, cfg.serviceConfig())
	if err != nil {
		return fmt.Errorf("init admin-module service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("admin-module shutdown error", "error", err)
		}
	}()

	if svc.BootstrapAdminPassword != "" {
		fmt.Printf("\n*** Admin user created: username=admin password=%s ***\n", svc.BootstrapAdminPassword)
		fmt.Println("Save this password now. It will not be shown again.")
		fmt.Println()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: adminmodule.NewRouter(svc),
	}

	serverDone := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
			return
		}
		serverDone <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		<-serverDone
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
	}

	return nil
}
