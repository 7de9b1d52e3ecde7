package worker

import (
	"fmt"
	"time"
)

// Config tunes the job worker. Zero values are invalid; start from
// DefaultConfig and override what the environment sets.
type Config struct {
	Concurrency     int
	PollInterval    time.Duration
	JobTimeout      time.Duration
	ShutdownTimeout time.Duration

	// StaleJobThreshold is how long a job may sit in 'running' before it is
	// treated as orphaned by a crashed process and requeued. It must exceed
	// JobTimeout or live jobs get picked up twice.
	StaleJobThreshold time.Duration
}

// DefaultConfig sizes the worker for subscription syncs and file purges,
// both of which are short network calls.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Concurrency < 1 || c.Concurrency > 100:
		return fmt.Errorf("worker: concurrency must be between 1 and 100, got %d", c.Concurrency)
	case c.PollInterval < time.Second:
		return fmt.Errorf("worker: poll interval must be at least 1s, got %v", c.PollInterval)
	case c.JobTimeout < time.Second:
		return fmt.Errorf("worker: job timeout must be at least 1s, got %v", c.JobTimeout)
	case c.ShutdownTimeout < time.Second:
		return fmt.Errorf("worker: shutdown timeout must be at least 1s, got %v", c.ShutdownTimeout)
	case c.StaleJobThreshold < time.Minute:
		return fmt.Errorf("worker: stale job threshold must be at least 1m, got %v", c.StaleJobThreshold)
	case c.StaleJobThreshold <= c.JobTimeout:
		return fmt.Errorf("worker: stale job threshold %v must exceed job timeout %v", c.StaleJobThreshold, c.JobTimeout)
	}
	return nil
}
