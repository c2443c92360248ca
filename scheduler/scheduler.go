// Package scheduler runs the periodic dependency probes for the report
// analysis API. Each probe result is stored in the data container, where the
// health checker reads it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/hireshawk-api/entities"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const defaultProbeTimeout = 10 * time.Second

// Scheduler probes the external collaborators on a fixed interval
type Scheduler struct {
	store        interfaces.HistoryStore
	probers      []interfaces.Prober
	interval     time.Duration
	probeTimeout time.Duration
	scheduler    *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(store interfaces.HistoryStore, interval time.Duration, probers ...interfaces.Prober) *Scheduler {
	timeout := defaultProbeTimeout
	if interval > 0 && interval < timeout {
		timeout = interval
	}
	return &Scheduler{
		store:        store,
		probers:      probers,
		interval:     interval,
		probeTimeout: timeout,
		scheduler:    gocron.NewScheduler(time.Local),
	}
}

// Start probes every dependency once, then schedules the periodic probes.
// Unreachable dependencies are not an error: the service starts degraded.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return errors.New("probe interval must be positive")
	}

	s.probeAll()

	_, err := s.scheduler.Every(s.interval).SingletonMode().WaitForSchedule().Do(s.probeAll)
	if err != nil {
		logging.Error("Failed to schedule dependency probes", "error", err)
		return fmt.Errorf("failed to schedule dependency probes: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Dependency probes scheduled", "interval", s.interval.String(), "probes", len(s.probers))
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// probeAll runs every probe concurrently and records the results
func (s *Scheduler) probeAll() {
	var wg sync.WaitGroup
	for _, p := range s.probers {
		wg.Add(1)
		go func(p interfaces.Prober) {
			defer wg.Done()
			s.store.SetDependencyStatus(s.probe(p))
		}(p)
	}
	wg.Wait()
}

func (s *Scheduler) probe(p interfaces.Prober) entities.DependencyStatus {
	ctx, cancel := context.WithTimeout(context.Background(), s.probeTimeout)
	defer cancel()

	start := time.Now()
	err := p.Probe(ctx)
	status := entities.DependencyStatus{
		Name:      p.Name(),
		Healthy:   err == nil,
		CheckedAt: time.Now(),
		Latency:   time.Since(start),
	}

	if err != nil {
		status.Error = err.Error()
		logging.Warn("Dependency probe failed", "dependency", status.Name, "error", err)
	} else {
		logging.Debug("Dependency probe succeeded", "dependency", status.Name, "latency_ms", status.Latency.Milliseconds())
	}
	return status
}
