// v1
// internal/breaker/breaker.go

// Package breaker guards the Kafka fetch path with a three-state
// circuit breaker so a broker outage degrades to fast failures instead
// of piling up blocked fetches.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned while the breaker is open and the reset timeout
// has not elapsed.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config tunes the breaker thresholds.
type Config struct {
	// MaxFailures is the consecutive failure count that opens the breaker.
	MaxFailures int
	// ResetTimeout is how long the breaker stays open before probing.
	ResetTimeout time.Duration
}

// Breaker implements a closed/open/half-open breaker around an
// arbitrary operation. Safe for concurrent use.
type Breaker struct {
	name string
	cfg  Config
	log  *slog.Logger

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time
}

// New builds a breaker. Zero config values are promoted to five
// failures and a thirty second reset window.
func New(name string, cfg Config, log *slog.Logger) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	b := &Breaker{name: name, cfg: cfg, log: log, state: Closed}
	log.Info("breaker_created",
		slog.String("name", name),
		slog.Int("maxFailures", cfg.MaxFailures),
		slog.Duration("resetTimeout", cfg.ResetTimeout))
	return b
}

// Execute runs op under breaker protection. While open and before the
// reset timeout it fast-fails with ErrOpen; after the timeout the next
// call runs as a half-open probe whose outcome closes or reopens the
// breaker.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.state
	openedAt := b.openedAt
	b.mu.Unlock()

	if state == Open {
		if time.Since(openedAt) < b.cfg.ResetTimeout {
			return ErrOpen
		}
		return b.probe(ctx, op)
	}

	err := op(ctx)
	if err == nil {
		b.onSuccess()
		return nil
	}
	b.onFailure(err)
	return err
}

// State reports the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) probe(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.state = HalfOpen
	b.mu.Unlock()
	b.log.Info("breaker_probe_start", slog.String("name", b.name))

	if err := op(ctx); err != nil {
		b.mu.Lock()
		b.state = Open
		b.openedAt = time.Now()
		b.recentFails++
		b.mu.Unlock()
		b.log.Warn("breaker_probe_failed", slog.String("name", b.name), slog.Any("err", err))
		return err
	}

	b.mu.Lock()
	b.state = Closed
	b.recentFails = 0
	b.mu.Unlock()
	b.log.Info("breaker_closed_after_probe", slog.String("name", b.name))
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.recentFails = 0
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentFails++
	if b.recentFails >= b.cfg.MaxFailures && b.state != Open {
		b.state = Open
		b.openedAt = time.Now()
		b.log.Error("breaker_opened",
			slog.String("name", b.name),
			slog.Int("failures", b.recentFails),
			slog.Any("err", err))
	}
}
