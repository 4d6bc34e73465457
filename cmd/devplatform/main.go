// Package main is the entry point for the local annotation platform used to run
// workers during development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boucaud/sample-intensity-worker/internal/api"
	"github.com/boucaud/sample-intensity-worker/internal/cache"
	"github.com/boucaud/sample-intensity-worker/internal/config"
	"github.com/boucaud/sample-intensity-worker/internal/logging"
	"github.com/boucaud/sample-intensity-worker/internal/render"
	"github.com/boucaud/sample-intensity-worker/internal/store"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/devplatform.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logs := logging.Setup(cfg.Log)
	defer logs.Close()

	log.Printf("Starting dev platform on port %d", cfg.Server.Port)

	ctx := context.Background()

	cacheManager, err := cache.NewManager(cache.Config{
		TileCacheSizeMB: cfg.Cache.TileSizeMB,
		TileTTL:         time.Duration(cfg.Cache.TileTTLMinutes) * time.Minute,
		QueryCacheSize:  cfg.Cache.QueryCacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	st, err := store.NewStore(cfg.Data.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()
	log.Printf("Annotations: sqlite=%s, tiles=%s", cfg.Data.SQLitePath, cfg.Data.TileDir)

	router := api.NewRouter(api.RouterConfig{
		Store:       st,
		Tiles:       store.NewTileDir(cfg.Data.TileDir),
		Cache:       cacheManager,
		Renderer:    render.NewRenderer(render.Config{PointRadius: cfg.Render.PointRadius}),
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server listening on http://localhost:%d%s", cfg.Server.Port, api.APIPrefix)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
