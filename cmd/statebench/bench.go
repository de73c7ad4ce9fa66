package main

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/state/observability"
	"github.com/tailored-agentic-units/state/registry"
)

type benchResult struct {
	Counter        int
	CounterVersion uint64
	Notifications  int64
	Log            []int
	LogVersion     uint64
	Metrics        observability.MetricsSnapshot
}

// run drives workers*increments concurrent updates against the "counter"
// state, then records one entry per worker in the "log" state with a single
// transaction.
func run(ctx context.Context, r *registry.Registry, workers, increments int, metrics *observability.MetricsObserver) (*benchResult, error) {
	counter, err := registry.Register(r, "counter", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to register counter: %w", err)
	}

	var notifications atomic.Int64
	h := counter.Subscribe(func(int) {
		notifications.Add(1)
	})
	defer counter.Unsubscribe(h)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < increments; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := counter.Update(func(v int) int { return v + 1 }); err != nil {
					return fmt.Errorf("worker %d: %w", w, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch, err := registry.Register(r, "log", []int{})
	if err != nil {
		return nil, fmt.Errorf("failed to register log: %w", err)
	}

	tx := batch.Begin()
	for w := 0; w < workers; w++ {
		if err := tx.Update(func(log []int) []int { return append(log, w) }); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit log: %w", err)
	}

	result := &benchResult{
		Notifications: notifications.Load(),
	}
	if result.Counter, err = counter.Get(); err != nil {
		return nil, err
	}
	if result.Log, err = batch.Get(); err != nil {
		return nil, err
	}
	result.CounterVersion = counter.Version()
	result.LogVersion = batch.Version()
	if metrics != nil {
		result.Metrics = metrics.Snapshot()
	}
	return result, nil
}

func sortedEvents(s observability.MetricsSnapshot) []observability.EventType {
	names := make([]observability.EventType, 0, len(s.Events))
	for name := range s.Events {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names
}
