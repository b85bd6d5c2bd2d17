/*
janitor.go - Idle session eviction

PURPOSE:
  Forms left open by clients that never call DELETE would keep their
  Store, Engine and bus subscriptions alive forever. The janitor closes
  sessions idle longer than the TTL.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Stop waits for the goroutine to exit

USAGE:
  janitor := NewSessionJanitor(registry, logger)
  janitor.Start()
  // ... later
  janitor.Stop()
*/
package api

import (
	"log/slog"
	"sync"
	"time"
)

// SessionJanitor evicts idle sessions.
type SessionJanitor struct {
	Registry      *Registry
	CheckInterval time.Duration
	TTL           time.Duration

	logger *slog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewSessionJanitor(registry *Registry, logger *slog.Logger) *SessionJanitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionJanitor{
		Registry:      registry,
		CheckInterval: 5 * time.Minute,
		TTL:           2 * time.Hour,
		logger:        logger.With(slog.String("component", "api.janitor")),
	}
}

// Start begins the eviction loop. Calling Start twice is a no-op.
func (j *SessionJanitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ticker != nil {
		return
	}
	j.ticker = time.NewTicker(j.CheckInterval)
	j.stop = make(chan struct{})
	j.wg.Add(1)

	go j.run(j.ticker, j.stop)

	j.logger.Info("janitor started",
		slog.Duration("interval", j.CheckInterval),
		slog.Duration("ttl", j.TTL))
}

// Stop stops the loop and waits for it to exit.
func (j *SessionJanitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ticker == nil {
		return
	}
	j.ticker.Stop()
	close(j.stop)
	j.wg.Wait()
	j.ticker = nil
	j.logger.Info("janitor stopped")
}

// RunNow performs one eviction pass.
func (j *SessionJanitor) RunNow() int {
	n := j.Registry.EvictIdle(j.TTL)
	if n > 0 {
		j.logger.Info("evicted idle sessions", slog.Int("count", n))
	}
	return n
}

func (j *SessionJanitor) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer j.wg.Done()

	for {
		select {
		case <-ticker.C:
			j.RunNow()
		case <-stop:
			return
		}
	}
}
