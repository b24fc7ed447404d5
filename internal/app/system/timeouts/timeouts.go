// Package timeouts holds the context deadlines used by handlers and the CLI.
//
// Classes:
//   - Ping: health checks
//   - Short: single-document reads, login lookups
//   - Medium: list pages, dashboard counts, single registration
//   - Long: index reconciliation, bootstrap
//   - Batch: workbook import and export, group assignment
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure or ConfigureFromEnv change them.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 90 * time.Second
)

// Config holds timeout values. Zero fields are ignored by Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides the non-zero fields of cfg. Call it at startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	for _, f := range fields(&cur) {
		if d := f.read(cfg); d > 0 {
			*f.ptr = d
		}
	}
}

// Reset restores the defaults. Tests use it after Configure.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns a snapshot for logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

type field struct {
	env  string
	ptr  *time.Duration
	read func(Config) time.Duration
}

func fields(c *Config) []field {
	return []field{
		{"CAMPHUB_TIMEOUT_PING", &c.Ping, func(x Config) time.Duration { return x.Ping }},
		{"CAMPHUB_TIMEOUT_SHORT", &c.Short, func(x Config) time.Duration { return x.Short }},
		{"CAMPHUB_TIMEOUT_MEDIUM", &c.Medium, func(x Config) time.Duration { return x.Medium }},
		{"CAMPHUB_TIMEOUT_LONG", &c.Long, func(x Config) time.Duration { return x.Long }},
		{"CAMPHUB_TIMEOUT_BATCH", &c.Batch, func(x Config) time.Duration { return x.Batch }},
	}
}

// ConfigureFromEnv reads CAMPHUB_TIMEOUT_{PING,SHORT,MEDIUM,LONG,BATCH}
// as Go durations ("2s", "2m"). Invalid or non-positive values are skipped.
// It returns how many values were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, f := range fields(&cur) {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*f.ptr = d
			n++
		}
	}
	return n
}

// WithTimeout wraps context.WithTimeout and logs when the deadline, rather
// than the caller, ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "participant import")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
