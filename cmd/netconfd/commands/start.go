package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ncxlabs/netconfd/internal/logger"
	"github.com/ncxlabs/netconfd/internal/telemetry"
	"github.com/ncxlabs/netconfd/pkg/config"
	"github.com/ncxlabs/netconfd/pkg/server"
)

var (
	startPidFile string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the netconfd server",
	Long: `Start netconfd in the foreground: bind the local control socket,
run the I/O multiplexer, and (if enabled) serve the admin HTTP surface.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/netconfd/config.yaml.

Examples:
  netconfd start
  netconfd start --config /etc/netconfd/config.yaml
  NETCONFD_LOGGING_LEVEL=DEBUG netconfd start --config /etc/netconfd/config.yaml

An environment override such as NETCONFD_LOGGING_LEVEL takes effect only
for a key that the loaded config file sets.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/netconfd/netconfd.pid)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:      cfg.Telemetry.Profiling.Enabled,
		Version:      Version,
		Endpoint:     cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes: cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("netconfd starting", "version", Version, "commit", Commit)
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	} else {
		logger.Info("profiling disabled")
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	pidPath := startPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	if err := os.MkdirAll(GetDefaultStateDir(), 0o755); err == nil {
		if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
			logger.Warn("failed to write pid file", "path", pidPath, "error", err)
		} else {
			defer func() { _ = os.Remove(pidPath) }()
		}
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("netconfd is running; press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", "error", err)
			return err
		}
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
	}

	return nil
}
