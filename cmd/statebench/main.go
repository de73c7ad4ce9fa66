package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tailored-agentic-units/state/observability"
	"github.com/tailored-agentic-units/state/registry"
	"github.com/tailored-agentic-units/state/state"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to registry config JSON file (optional)")
		workers    = flag.Int("workers", 8, "Number of concurrent writers")
		increments = flag.Int("increments", 1000, "Updates performed by each writer")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *workers <= 0 || *increments < 0 {
		fmt.Fprintln(os.Stderr, "Usage: statebench [-config <file>] -workers <n> -increments <n>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := registry.DefaultConfig()
	if *configFile != "" {
		loaded, err := registry.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// Config files name observers; bind "slog" to this process's logger.
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	metrics := observability.NewMetricsObserver()
	r, err := registry.New(&cfg,
		registry.WithContainerOptions(state.WithObserver(containerObserver(&cfg, metrics))),
	)
	if err != nil {
		log.Fatalf("Failed to create registry: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := run(ctx, r, *workers, *increments, metrics)
	if err != nil {
		log.Fatalf("Bench run failed: %v", err)
	}

	fmt.Printf("Counter: %d (version %d, want %d)\n", result.Counter, result.CounterVersion, (*workers)*(*increments))
	fmt.Printf("Notifications: %d\n", result.Notifications)
	fmt.Printf("Batch log: %v (version %d)\n", result.Log, result.LogVersion)

	fmt.Println("\nRegistry:")
	for _, e := range r.Entries() {
		fmt.Printf("  %-8s %-6s version=%d subscribers=%d\n", e.Key, e.Type, e.Version, e.SubscriberCount)
	}

	fmt.Println("\nEvents:")
	for _, name := range sortedEvents(result.Metrics) {
		fmt.Printf("  %-28s %d\n", name, result.Metrics.Events[name])
	}
	fmt.Printf("  %-28s %d\n", "errors", result.Metrics.Errors)
}

// containerObserver sends container events to the configured observer and to
// the metrics counters.
func containerObserver(cfg *registry.Config, metrics *observability.MetricsObserver) observability.Observer {
	configured, err := observability.GetObserver(cfg.Container.Observer)
	if err != nil {
		return metrics
	}
	return observability.NewMultiObserver(configured, metrics)
}
