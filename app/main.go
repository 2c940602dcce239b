package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluepython508/news-rss/app/api"
	"github.com/bluepython508/news-rss/app/cfg"
	"github.com/bluepython508/news-rss/app/feed"
	"github.com/bluepython508/news-rss/app/sources"
	"github.com/bluepython508/news-rss/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting news-rss", "version", appCfg.Version, "bind", appCfg.BindAddr)

	registry, err := sources.Load(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load source registry", "file", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Source registry loaded", "sources", registry.Count(), "file", appCfg.SourcesFile)

	store := feed.NewStore()

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
	}

	scheduler := tasks.NewScheduler(registry, store, httpClient)
	scheduler.Start()

	handler := api.NewHandler(store)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         appCfg.BindAddr,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", appCfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	scheduler.Stop()
	slog.Info("Shutdown complete")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
