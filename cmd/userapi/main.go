// Package main provides the main entry point for the user API server
// @title User Login API
// @version 1.0.0
// @description User registration, login and management API
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey bearerAuth
// @in header
// @name Authorization
// @description JWT token authentication. Use 'Bearer {token}' format.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/memtensor/userapi/api"
	"github.com/memtensor/userapi/pkg/config"
	"github.com/memtensor/userapi/pkg/logger"
	"github.com/memtensor/userapi/pkg/metrics"
	"github.com/memtensor/userapi/pkg/users"
)

// Version information (set by build process)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Command line flags
var (
	configFile  = flag.String("config", "", "Path to an optional YAML or JSON configuration file")
	envFile     = flag.String("env-file", ".env", "Path to the .env file")
	dumpConfig  = flag.Bool("dump-config", false, "Print the effective configuration and exit")
	watchConfig = flag.Bool("watch", false, "Reload the log level when the configuration file changes")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("userapi %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run(ctx context.Context) error {
	loader := config.NewLoader(*envFile, *configFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if *dumpConfig {
		return cfg.WriteYAML(os.Stdout)
	}

	appLogger := logger.New(os.Stdout, cfg.LogLevel)
	appLogger.Info("Starting userapi", map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"env":        cfg.Env,
	})

	if *watchConfig {
		err := loader.Watch(ctx, func(next *config.Config, err error) {
			if err != nil {
				appLogger.Warn("Ignoring invalid configuration change", map[string]interface{}{"error": err.Error()})
				return
			}
			appLogger.SetLevel(next.LogLevel)
			appLogger.Info("Configuration reloaded", map[string]interface{}{"log_level": next.LogLevel})
		})
		if err != nil {
			return fmt.Errorf("failed to watch configuration: %w", err)
		}
	}

	appMetrics := metrics.NewMemoryMetrics()

	usersConfig := cfg.Users()
	repo, err := users.NewRepository(ctx, usersConfig, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			appLogger.Error("Failed to close user store", closeErr)
		}
	}()

	codec := users.NewTokenCodec(usersConfig.JWTSecret, usersConfig.TokenTTL)
	sessions := users.NewSessionManager(repo, codec, appLogger).WithMetrics(appMetrics)
	manager := users.NewManager(repo, appLogger)

	cleanup := users.NewCleanupScheduler(repo, usersConfig.CleanupSchedule, usersConfig.CleanupMaxAge, appLogger).
		WithMetrics(appMetrics)
	if err := cleanup.Start(); err != nil {
		return fmt.Errorf("failed to start token cleanup: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		if err := cleanup.Stop(stopCtx); err != nil {
			appLogger.Error("Token cleanup did not stop cleanly", err)
		}
	}()

	accessLog, closeAccessLog, err := openAccessLog(cfg)
	if err != nil {
		return err
	}
	defer closeAccessLog()

	server := api.NewServer(manager, sessions, repo, appLogger, appMetrics, api.Options{
		Addr:              cfg.Address(),
		Production:        cfg.IsProduction(),
		ProtectUserRoutes: cfg.ProtectUserRoutes,
		CookieMaxAge:      cfg.CookieTTL(),
		CORSOrigins:       cfg.CORSOrigins,
		AccessLog:         accessLog,
	})

	return server.Start(ctx)
}

// openAccessLog appends to LOG_DIR/access.log and mirrors to stdout outside production
func openAccessLog(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.LogDir == "" {
		return os.Stdout, func() {}, nil
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(cfg.LogDir, "access.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open access log: %w", err)
	}
	closeFn := func() { _ = file.Close() }

	if cfg.IsProduction() {
		return file, closeFn, nil
	}
	return io.MultiWriter(file, os.Stdout), closeFn, nil
}
