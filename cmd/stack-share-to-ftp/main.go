package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Kevinjil/stack-share-to-ftp/internal/logger"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/config"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/registry"
	"github.com/Kevinjil/stack-share-to-ftp/pkg/server"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"Usage: %s [flags] [port [bind-address]]\n\n"+
			"Serves remote STACK public shares over FTP. Clients authenticate with\n"+
			"the share identity \"share@domain\" and the share password.\n\n"+
			"Flags:\n", os.Args[0])
	flag.PrintDefaults()
}

// applyArgs overrides listener settings from positional arguments, keeping
// the classic invocation working:
//
//	stack-share-to-ftp [port [bind-address]]
func applyArgs(cfg *config.Config, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("too many arguments: expected [port [bind-address]]")
	}

	if len(args) >= 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %q", args[0])
		}
		cfg.Adapters.FTP.Port = port
		cfg.Adapters.FTP.Enabled = true
	}

	if len(args) == 2 {
		cfg.Adapters.FTP.BindAddress = args[1]
	}

	return nil
}

// runInitConfig writes a commented default config file and reports where.
func runInitConfig(path string, force bool) {
	var (
		written string
		err     error
	)

	if path != "" {
		written = path
		err = config.InitConfigToPath(path, force)
	} else {
		written, err = config.InitConfig(force)
	}

	if err != nil {
		log.Fatalf("Failed to write config file: %v", err)
	}

	fmt.Printf("Wrote default configuration to %s\n", written)
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file (default: ~/.config/stack-share-to-ftp/config.yaml)")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	initConfig := flag.Bool("init-config", false, "Write a commented default config file and exit")
	force := flag.Bool("force", false, "Overwrite an existing config file with -init-config")
	flag.Usage = usage
	flag.Parse()

	if *initConfig {
		runInitConfig(*configPath, *force)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Apply command line overrides, then re-validate the mutated config
	if err := applyArgs(cfg, flag.Args()); err != nil {
		log.Fatalf("%v", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = logger.Sync() }()

	fmt.Println("stack-share-to-ftp - FTP bridge for STACK public shares")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Metrics first so the components below can consume the collectors
	metricsResult := config.InitializeMetrics(cfg)

	binder, err := config.CreateBinder(cfg, metricsResult.StackMetrics)
	if err != nil {
		log.Fatalf("Failed to create backend binder: %v", err)
	}

	// One shared registry so operators see all bound sessions in one place
	sessions := registry.NewRegistry()

	adapters, err := config.CreateAdapters(cfg, sessions, metricsResult.FTPMetrics)
	if err != nil {
		log.Fatalf("Failed to create adapters: %v", err)
	}

	srv := server.New(binder, cfg.Server.ShutdownTimeout)
	for _, adp := range adapters {
		if err := srv.AddAdapter(adp); err != nil {
			log.Fatalf("Failed to register adapter: %v", err)
		}
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics available on http://localhost:%d/metrics", metricsResult.Server.Port())
	}

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Bridge is running on port %d. Press Ctrl+C to stop.", cfg.Adapters.FTP.Port)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		// Wait for the server to shut down gracefully
		if err := <-serverDone; err != nil && err != context.Canceled {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil && err != context.Canceled {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}
