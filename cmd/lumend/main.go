// Package main is the entry point for the Lumen lighting engine daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/lumenstage/lumen/internal/config"
	"github.com/lumenstage/lumen/internal/engine"
	"github.com/lumenstage/lumen/internal/gdtf"
	"github.com/lumenstage/lumen/internal/httpapi"
	"github.com/lumenstage/lumen/internal/pubsub"
	"github.com/lumenstage/lumen/internal/sacn"
	"github.com/lumenstage/lumen/internal/showfile"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	printBanner(cfg)

	// Load the showfile directory
	sf, err := showfile.Load(cfg.ShowfileDir)
	if err != nil {
		log.Fatalf("Failed to load showfile: %v", err)
	}

	// GDTF descriptions come from the gdtf_files/ directory through the
	// externally installed parser, behind a bounded LRU cache.
	loader, err := gdtf.NewCachingLoader(&gdtf.DirectoryLoader{Dir: sf.GdtfDir()}, cfg.GdtfCacheSize)
	if err != nil {
		log.Fatalf("Failed to build GDTF loader: %v", err)
	}

	shw, err := sf.Apply(context.Background(), loader)
	if err != nil {
		log.Fatalf("Failed to apply showfile: %v", err)
	}
	log.Printf("🎭 Showfile loaded: %d fixtures, %d groups, %d presets, %d cues, %d sequences, %d executors",
		len(shw.Patch.Fixtures()), shw.Groups.Len(), shw.Presets.Len(),
		shw.Cues.Len(), shw.Sequences.Len(), shw.Executors.Len())

	var sources []sacn.SourceConfig
	var cid sacn.CID
	if cfg.SacnEnabled {
		sources, err = sf.SourceConfigs()
		if err != nil {
			log.Fatalf("Failed to read sACN sources: %v", err)
		}
		cid, err = sacn.LoadOrCreateCID(cfg.SacnCidPath)
		if err != nil {
			log.Fatalf("Failed to load sACN CID: %v", err)
		}
		log.Printf("📡 sACN output enabled: %d source(s)", len(sources))
	} else {
		log.Printf("📡 sACN output disabled (simulation mode)")
	}

	events := pubsub.New()
	eng, err := engine.New(shw, events, engine.Options{
		FrameInterval:   cfg.FrameInterval(),
		CommandQueueLen: cfg.CommandQueueLen,
		Sources:         sources,
		CID:             cid,
	})
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	api := httpapi.New(eng, Version)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Router(cfg.CORSOrigin),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return eng.Run(ctx) })
	group.Go(func() error {
		log.Printf("Server listening on http://localhost:%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Fatalf("Engine error: %v", err)
	}
	log.Println("Server stopped")
}

// printBanner prints the startup banner, colored only on a real
// terminal.
func printBanner(cfg *config.Config) {
	bold, reset := "", ""
	if isatty.IsTerminal(os.Stdout.Fd()) && !cfg.NonInteractive {
		bold, reset = "\033[1m", "\033[0m"
	}
	fmt.Println("============================================")
	fmt.Printf("  %sLumen Lighting Engine%s\n", bold, reset)
	fmt.Printf("  Version: %s\n", Version)
	fmt.Printf("  Build:   %s\n", BuildTime)
	fmt.Printf("  Commit:  %s\n", GitCommit)
	fmt.Println("============================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Port:        %s\n", cfg.Port)
	fmt.Printf("  Showfile:    %s\n", cfg.ShowfileDir)
	fmt.Printf("  Frame rate:  %d Hz\n", cfg.FrameRateHz)
	fmt.Printf("  sACN:        %v\n", cfg.SacnEnabled)
	fmt.Println("============================================")
}
