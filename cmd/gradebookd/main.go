// gradebookd is the record service daemon.
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rollcall/gradebook/internal/aggregate"
	"github.com/rollcall/gradebook/internal/handler"
	"github.com/rollcall/gradebook/internal/loader"
	"github.com/rollcall/gradebook/internal/logging"
	"github.com/rollcall/gradebook/internal/server"
	"github.com/rollcall/gradebook/internal/storage/csvfile"
	"github.com/rollcall/gradebook/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	listen := flag.String("listen", "", "listen address (overrides config)")
	csvPath := flag.String("csv", "", "backing CSV file path (overrides config)")
	workers := flag.Int("workers", 0, "aggregation worker count (overrides config)")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	log.Printf("gradebookd %s starting...", Version)

	// Load config
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("No config file found, using defaults")
			cfg = loader.DefaultConfig()
		} else {
			log.Fatalf("Load config: %v", err)
		}
	}

	// CLI overrides
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *csvPath != "" {
		cfg.CSV.FilePath = *csvPath
	}
	if *workers > 0 {
		cfg.Aggregate.Workers = *workers
	}

	if err := loader.Validate(cfg); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// =========================================================================
	// Initialize Logging
	// =========================================================================

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	jsonFormat := cfg.Logging.Format == "json"
	if cfg.Logging.LogPath != "" {
		logFile, err := logging.InitWithFile(cfg.Logging.LogPath, level, jsonFormat)
		if err != nil {
			log.Fatalf("Init logging: %v", err)
		}
		defer logFile.Close()
	} else {
		logging.Init(level, jsonFormat)
	}

	// =========================================================================
	// Initialize Storage and Store
	// =========================================================================

	log.Printf("Backing file: %s", cfg.CSV.FilePath)

	gateway := csvfile.New(cfg.CSV.FilePath, cfg.Schema)
	if err := gateway.EnsureFile(); err != nil {
		log.Fatalf("Ensure backing file: %v", err)
	}

	st := store.New(gateway, cfg.Schema)

	// =========================================================================
	// Initialize Aggregation Engine
	// =========================================================================

	mode, err := aggregate.ParseFailureMode(cfg.Aggregate.FailureMode)
	if err != nil {
		log.Fatalf("Parse failure mode: %v", err)
	}

	engine := aggregate.New(cfg.Schema, &aggregate.Config{
		Workers:            cfg.Aggregate.Workers,
		Mode:               mode,
		PercentileAccuracy: cfg.Aggregate.PercentileAccuracy,
	})

	// =========================================================================
	// Create Server
	// =========================================================================

	h := handler.New(st, engine)
	srv := server.New(&server.Config{
		Listen:            cfg.Listen,
		Handler:           h.Routes(),
		DrainTimeout:      time.Duration(cfg.Server.DrainTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeoutSec) * time.Second,
	})

	// =========================================================================
	// Signal Handling and Graceful Shutdown
	// =========================================================================

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("Shutting down...")
		srv.Shutdown()
	}()

	// =========================================================================
	// Run
	// =========================================================================

	log.Printf("Listening on %s (workers=%d, failure_mode=%s)",
		cfg.Listen, cfg.Aggregate.Workers, mode)

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
