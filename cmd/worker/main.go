package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"netdrift/internal/config"
	"netdrift/internal/netconf"
	"netdrift/internal/notifier"
	"netdrift/internal/queue"
	"netdrift/internal/repository/sqlite"
	"netdrift/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "config file path (overrides the search path)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	concurrency := flag.Int("concurrency", 0, "worker goroutines (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting netdrift worker...")

	cfg, from, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if from != "" {
		log.Printf("Config loaded from %s", from)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *concurrency > 0 {
		cfg.Worker.Concurrency = *concurrency
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

	runner := worker.NewRunner(
		store.Intents,
		store.Diffs,
		jobQueue,
		netconf.NewSSHProvider(cfg.Netconf.Port, cfg.Netconf.Timeout),
		notifier.New(cfg.Webhook.Timeout),
		cfg.Worker.PollInterval,
		cfg.Worker.Concurrency,
	)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down worker...")
		cancel()
	}()

	log.Printf("Worker polling every %s with %d goroutines", cfg.Worker.PollInterval, cfg.Worker.Concurrency)
	runner.Run(ctx)

	log.Println("Worker stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}
