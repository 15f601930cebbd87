package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/app"
	"github.com/lawnchairsociety/delvekeep/server/internal/config"
	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/help"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/metrics"
	"github.com/lawnchairsociety/delvekeep/server/internal/namefilter"
	"github.com/lawnchairsociety/delvekeep/server/internal/server"
	"github.com/lawnchairsociety/delvekeep/server/internal/text"
)

func main() {
	configFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	helpFile := flag.String("help", "data/help.yaml", "Path to help YAML file")
	textFile := flag.String("text", "data/text.yaml", "Path to text YAML file")
	namesFile := flag.String("names", "data/names.yaml", "Path to name filter YAML file")
	seed := flag.Int64("seed", 0, "Override the configured world seed")
	storage := flag.String("storage", "", "Override the configured storage driver (sqlite, postgres, redis, file, memory)")
	makeAdmin := flag.String("make-admin", "", "Promote an existing account to admin and exit (requires username)")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load server config %s: %v", *configFile, err)
	}
	if *seed != 0 {
		cfg.Dungeon.WorldSeed = *seed
	}
	if *storage != "" {
		cfg.Storage.Driver = *storage
	}

	if *makeAdmin != "" {
		handleMakeAdmin(*makeAdmin, cfg.Storage.DatabaseConfig())
		return
	}

	logger.Info("Starting Delvekeep server")

	ctx := context.Background()
	rt, err := app.Open(ctx, *cfg, nil)
	if err != nil {
		log.Fatalf("Failed to open dungeon: %v", err)
	}
	defer rt.Close()

	srv := server.NewServer(cfg.Server, rt.Accounts, rt.Services())

	if h, err := help.Load(*helpFile); err != nil {
		logger.Warning("Failed to load help config, using built-in help", "path", *helpFile, "error", err)
	} else {
		srv.SetHelp(h)
		logger.Info("Help system loaded", "path", *helpFile)
	}
	if t, err := text.Load(*textFile); err != nil {
		logger.Warning("Failed to load text config, using built-in text", "path", *textFile, "error", err)
	} else {
		srv.SetText(t)
		logger.Info("Text system loaded", "path", *textFile)
	}
	if nf, err := namefilter.LoadConfig(*namesFile); err != nil {
		logger.Warning("Failed to load name filter, only rival names are reserved", "path", *namesFile, "error", err)
	} else {
		srv.SetNameFilter(nf)
		logger.Info("Name filter loaded", "path", *namesFile, "enabled", nf.Enabled)
	}

	origins := cfg.Server.WebSocket.AllowedOrigins
	if len(origins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(origins) == 1 && origins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", origins)
	}

	if cfg.Metrics.Enabled {
		startMetricsServer(cfg.Metrics.Addr, srv.HealthHandler())
	}

	if cfg.Server.TelnetAddr != "" {
		go func() {
			if err := srv.Start(); err != nil {
				log.Fatalf("Telnet server error: %v", err)
			}
		}()
	}
	if cfg.Server.WebSocketAddr != "" {
		go func() {
			if err := srv.StartWebSocket(); err != nil {
				log.Fatalf("WebSocket server error: %v", err)
			}
		}()
	}

	logger.Info("Delvekeep running", "telnet", cfg.Server.TelnetAddr, "websocket", cfg.Server.WebSocketAddr)
	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown did not finish cleanly", "error", err)
	}
	logger.Info("Server stopped")
}

// startMetricsServer serves /metrics and /health on addr.
func startMetricsServer(addr string, health http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", health)

	go func() {
		logger.Info("Metrics server listening", "address", addr)
		err := http.ListenAndServe(addr, mux)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "error", err)
		}
	}()
}

// handleMakeAdmin promotes an account to admin and exits
func handleMakeAdmin(username string, dbConfig database.Config) {
	db, err := database.OpenWithConfig(dbConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	account, err := db.GetAccountByUsername(username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Account '%s' not found\n", username)
		os.Exit(1)
	}

	if account.IsAdmin {
		fmt.Printf("Account '%s' is already an admin.\n", username)
		return
	}

	if err := db.SetAdmin(account.ID, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to promote account: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Account '%s' has been promoted to admin.\n", username)
}
