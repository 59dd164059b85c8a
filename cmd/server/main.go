package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netdrift/internal/config"
	"netdrift/internal/handler"
	"netdrift/internal/queue"
	"netdrift/internal/repository/sqlite"
	"netdrift/internal/scan"
	"netdrift/internal/service"
)

func main() {
	configPath := flag.String("config", "", "config file path (overrides the search path)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting netdrift server...")

	cfg, from, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if from != "" {
		log.Printf("Config loaded from %s", from)
	}
	if *addr != "" {
		cfg.Server.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	jobQueue, err := queue.New(store.DB())
	if err != nil {
		log.Fatalf("Failed to initialize job queue: %v", err)
	}

	intentSvc := service.NewIntentService(store.Intents, store.Diffs, jobQueue)
	groupSvc := service.NewGroupService(store.Groups, store.Intents)
	scanner := scan.NewScanner(cfg.Scan.Timeout)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux,
		handler.NewIntentHandler(intentSvc),
		handler.NewGroupHandler(groupSvc),
		handler.NewJobHandler(jobQueue),
		handler.NewScanHandler(scanner),
	)

	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
		handler.APIKey(cfg.Server.APITokenKey, cfg.Server.APIToken),
	)

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}
