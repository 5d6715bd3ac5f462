package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/me/modelrun/internal/config"
	"github.com/me/modelrun/internal/dataset"
	"github.com/me/modelrun/internal/logging"
	"github.com/me/modelrun/internal/registry"
	"github.com/me/modelrun/internal/runner"
	"github.com/me/modelrun/internal/server"
	"github.com/me/modelrun/internal/store"
)

func main() {
	cfg := config.DefaultServerConfig()

	configFile := flag.String("config", "", "Path to YAML config file")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "Database URL: postgres:// URL or SQLite path (default ~/.modelrun/modelrun.db)")
	flag.DurationVar(&cfg.StepDelay, "step-delay", cfg.StepDelay, "Pause after each run status transition")
	flag.IntVar(&cfg.MaxConcurrentRuns, "max-concurrent-runs", cfg.MaxConcurrentRuns, "Max run tasks executing at once (0 for unlimited)")
	flag.StringVar(&cfg.YieldDataPath, "yield-data", cfg.YieldDataPath, "Path to the yield CSV dataset")
	flag.StringVar(&cfg.WaterRiskDataPath, "water-risk-data", cfg.WaterRiskDataPath, "Path to the water risk CSV dataset")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg, err := config.ApplyEnv(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Open store and run migrations. A postgres:// URL selects PostgreSQL,
	// anything else is a SQLite path.
	var st store.Store
	if strings.HasPrefix(cfg.DatabaseURL, "postgres://") || strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		pg, err := store.NewPostgresStore(context.Background(), cfg.DatabaseURL, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			os.Exit(1)
		}
		st = pg
		logger.Info("database ready", "backend", "postgres")
	} else {
		dbPath := cfg.DatabaseURL
		if dbPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
				os.Exit(1)
			}
			dir := filepath.Join(home, ".modelrun")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
				os.Exit(1)
			}
			dbPath = filepath.Join(dir, "modelrun.db")
		}
		sq, err := store.NewSQLiteStore(dbPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			os.Exit(1)
		}
		st = sq
		logger.Info("database ready", "backend", "sqlite", "path", dbPath)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}

	// Seed the model catalog from the registry on first start.
	reg := registry.New()
	if err := st.SeedModels(context.Background(), reg.List()); err != nil {
		fmt.Fprintf(os.Stderr, "seed models: %v\n", err)
		os.Exit(1)
	}

	ds := dataset.New(cfg.YieldDataPath, cfg.WaterRiskDataPath, logger)

	run := runner.New(st, ds, reg, runner.Config{
		StepDelay:     cfg.StepDelay,
		MaxConcurrent: cfg.MaxConcurrentRuns,
	}, logger)

	srv := server.New(cfg, st, ds, reg, run, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "step_delay", cfg.StepDelay)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}

	// Let in-flight run tasks finish writing their state.
	run.Wait()
	logger.Info("server stopped")
}
