package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dtf-framework/device-agent/internal/assets"
	"github.com/dtf-framework/device-agent/internal/bootstrap"
	"github.com/dtf-framework/device-agent/internal/config"
	"github.com/dtf-framework/device-agent/internal/logging"
	"github.com/dtf-framework/device-agent/internal/manifest"
	"github.com/dtf-framework/device-agent/internal/notify"
	"github.com/dtf-framework/device-agent/internal/permissions"
	"github.com/dtf-framework/device-agent/internal/platform"
	"github.com/dtf-framework/device-agent/internal/server"
	"github.com/dtf-framework/device-agent/internal/service"
)

// runRun starts the agent daemon: one initialization cycle up front,
// then the long-running services, re-initializing on SIGHUP and
// restarting the socket on SIGUSR1.
func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.LoadOrDefault()
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("agent starting",
		zap.String("version", Version),
		zap.String("files_dir", cfg.Paths.FilesDir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	detector := platform.NewDetector()

	// The socket name and helper name can come from a signed manifest
	// override; resolve them once at startup.
	socketName := cfg.Socket.Name
	helperName := manifest.DefaultHelperName
	if m, source, err := manifest.Load(ctx, cfg.Paths.FilesDir, detector); err == nil {
		logger.Info("manifest resolved", zap.String("source", source))
		if m.Socket != "" {
			socketName = m.Socket
		}
		if m.Helper != "" {
			helperName = m.Helper
		}
	} else {
		logger.Warn("manifest load failed, using defaults", zap.Error(err))
	}

	sup := service.NewSupervisor(logger)

	srv := server.New(server.Config{
		SocketName:  socketName,
		FallbackDir: cfg.Socket.FallbackDir,
		FilesDir:    cfg.Paths.FilesDir,
		Executor:    server.NewHelperExecutor(cfg.Paths.FilesDir, helperName),
	}, logger)

	beacon := notify.NewBeacon(notify.Config{
		FilesDir: cfg.Paths.FilesDir,
		Version:  Version,
		Interval: cfg.Beacon.Interval,
	}, logger)

	orch := bootstrap.New(bootstrap.Config{
		FilesDir: cfg.Paths.FilesDir,
		Store:    assets.NewDirStore(cfg.Paths.AssetDir),
		Detector: detector,
		Setter: permissions.NewSetter(permissions.Config{
			ChmodPath: cfg.Permission.ChmodPath,
			Mode:      cfg.Permission.Mode,
			Timeout:   cfg.Permission.Timeout,
		}, logger),
		Supervisor: sup,
		Services:   []service.Service{srv, beacon},
	}, logger)

	sup.Start(ctx, orch)
	orch.Trigger()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGINT, syscall.SIGTERM)

	for {
		switch sig := <-sigs; sig {
		case syscall.SIGHUP:
			logger.Info("re-initialization requested")
			orch.Trigger()
		case syscall.SIGUSR1:
			logger.Info("socket restart requested")
			if err := sup.Restart(ctx, srv); err != nil {
				logger.Warn("socket restart failed", zap.Error(err))
			}
		default:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			cancel()
			sup.Wait()
			return nil
		}
	}
}
