package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/geotoken/internal/pkg/uid"
	"go.uber.org/atomic"
)

const (
	// DefaultProduceInterval is the pause between two appends.
	DefaultProduceInterval = 15 * time.Second
	// DefaultMaxFailures stops a loop after this many consecutive transient failures.
	DefaultMaxFailures = 3
)

// ProducerState is the lifecycle state of a ProducerLoop.
type ProducerState int32

const (
	ProducerIdle ProducerState = iota
	ProducerGenerating
)

func (s ProducerState) String() string {
	if s == ProducerGenerating {
		return "generating"
	}
	return "idle"
}

type producerAPI interface {
	StartTokens(ctx context.Context, loc Location, idempotencyKey string) (*ControlResult, error)
	StopTokens(ctx context.Context) (*ControlResult, error)
}

// ProducerConfig tunes a ProducerLoop. Zero values pick the defaults.
type ProducerConfig struct {
	Interval    time.Duration
	MaxFailures int32
	// OnToken receives every freshly appended token.
	OnToken func(Token)
}

// ProducerLoop appends a location-stamped token on start and then once per
// interval until stopped, the session ends or transient failures pile up.
type ProducerLoop struct {
	api      producerAPI
	location LocationProvider
	keys     uid.StringID
	cfg      ProducerConfig

	state    *atomic.Int32
	failures *atomic.Int32
	appended *atomic.Int64

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewProducerLoop builds an idle loop. keys generates one idempotency key per append.
func NewProducerLoop(api producerAPI, location LocationProvider, keys uid.StringID, cfg ProducerConfig) *ProducerLoop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultProduceInterval
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}

	return &ProducerLoop{
		api:      api,
		location: location,
		keys:     keys,
		cfg:      cfg,
		state:    atomic.NewInt32(int32(ProducerIdle)),
		failures: atomic.NewInt32(0),
		appended: atomic.NewInt64(0),
	}
}

// State returns the current lifecycle state.
func (p *ProducerLoop) State() ProducerState {
	return ProducerState(p.state.Load())
}

// Appended returns how many tokens this loop has appended.
func (p *ProducerLoop) Appended() int64 {
	return p.appended.Load()
}

// Start performs one append right away and then keeps appending in the
// background. It fails with ErrAlreadyRunning unless Idle, with
// ErrLocationUnavailable when no position can be read and with
// ErrSessionExpired when the server rejects the session. A concurrent Stop
// waits until Start returns.
func (p *ProducerLoop) Start(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if !p.state.CompareAndSwap(int32(ProducerIdle), int32(ProducerGenerating)) {
		return ErrAlreadyRunning
	}

	if err := p.tick(ctx); err != nil {
		p.state.Store(int32(ProducerIdle))
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.err = nil
	p.mu.Unlock()

	go p.run(loopCtx, done)

	return nil
}

// Stop halts the loop and reports the stop to the server. An append already
// in flight completes first. It is a no-op while Idle.
func (p *ProducerLoop) Stop(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if p.State() == ProducerIdle || cancel == nil {
		return nil
	}

	cancel()
	<-done

	if _, err := p.api.StopTokens(ctx); err != nil {
		return fmt.Errorf("client: stop tokens: %w", err)
	}
	return nil
}

// Wait blocks until the loop ends and returns why: nil after Stop or
// cancellation, ErrSessionExpired or ErrTooManyFailures otherwise.
func (p *ProducerLoop) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *ProducerLoop) run(ctx context.Context, done chan struct{}) {
	var err error
	defer func() {
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		p.state.Store(int32(ProducerIdle))
		close(done)
	}()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
		}

		// ctx only ends the loop between ticks; a started append runs to
		// completion, bounded by the HTTP client timeout.
		tickErr := p.tick(context.WithoutCancel(ctx))
		switch {
		case tickErr == nil:
			p.failures.Store(0)
		case errors.Is(tickErr, ErrSessionExpired):
			err = ErrSessionExpired
			return
		case IsTransient(tickErr):
			n := p.failures.Inc()
			slog.WarnContext(ctx, "token append failed", "error", tickErr, "consecutive_failures", n)
			if n >= p.cfg.MaxFailures {
				err = fmt.Errorf("%w: %w", ErrTooManyFailures, tickErr)
				return
			}
		default:
			err = tickErr
			return
		}
	}
}

func (p *ProducerLoop) tick(ctx context.Context) error {
	loc, err := p.location.Location(ctx)
	if err != nil {
		if errors.Is(err, ErrLocationUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	res, err := p.api.StartTokens(ctx, loc, p.keys.Generate())
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return ErrSessionExpired
		}
		return err
	}

	if res.Token != nil {
		p.appended.Inc()
		if p.cfg.OnToken != nil {
			p.cfg.OnToken(*res.Token)
		}
	}
	return nil
}
