package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// DefaultPollInterval is the pause between two claims.
const DefaultPollInterval = 60 * time.Second

type consumerAPI interface {
	ClaimTokens(ctx context.Context) ([]Token, error)
}

// ConsumerConfig tunes a ConsumerPoller. Zero values pick the defaults.
type ConsumerConfig struct {
	Interval    time.Duration
	MaxFailures int32
	// Sink receives every non-empty batch of claimed tokens.
	Sink func([]Token)
}

// ConsumerPoller claims unclaimed tokens on start and then once per interval
// until stopped, the session ends or transient failures pile up.
type ConsumerPoller struct {
	api consumerAPI
	cfg ConsumerConfig

	active   *atomic.Bool
	claimed  *atomic.Int64
	failures *atomic.Int32

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewConsumerPoller builds a stopped poller.
func NewConsumerPoller(api consumerAPI, cfg ConsumerConfig) *ConsumerPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}

	return &ConsumerPoller{
		api:     api,
		cfg:     cfg,
		active:   atomic.NewBool(false),
		claimed:  atomic.NewInt64(0),
		failures: atomic.NewInt32(0),
	}
}

// Active reports whether the poller is running.
func (c *ConsumerPoller) Active() bool {
	return c.active.Load()
}

// Claimed returns how many tokens this poller has claimed.
func (c *ConsumerPoller) Claimed() int64 {
	return c.claimed.Load()
}

// Start begins polling. Starting an active poller does nothing.
func (c *ConsumerPoller) Start(ctx context.Context) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.active.CompareAndSwap(false, true) {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.err = nil
	c.mu.Unlock()
	c.failures.Store(0)

	go c.run(loopCtx, done)
}

// Stop halts polling. A claim already in flight completes and its batch still
// reaches the sink before Stop returns. Stopping a stopped poller does nothing.
func (c *ConsumerPoller) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until polling ends and returns why: nil after Stop or
// cancellation, ErrSessionExpired, ErrTooManyFailures or the first
// non-transient claim error otherwise.
func (c *ConsumerPoller) Wait() error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *ConsumerPoller) run(ctx context.Context, done chan struct{}) {
	var err error
	defer func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.active.Store(false)
		close(done)
	}()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		// ctx only ends the loop between polls; a started claim runs to
		// completion, bounded by the HTTP client timeout.
		pollErr := c.poll(context.WithoutCancel(ctx))
		switch {
		case pollErr == nil:
			c.failures.Store(0)
		case errors.Is(pollErr, ErrSessionExpired):
			err = ErrSessionExpired
			return
		case IsTransient(pollErr):
			n := c.failures.Inc()
			slog.WarnContext(ctx, "token claim failed", "error", pollErr, "consecutive_failures", n)
			if n >= c.cfg.MaxFailures {
				err = fmt.Errorf("%w: %w", ErrTooManyFailures, pollErr)
				return
			}
		default:
			err = pollErr
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (c *ConsumerPoller) poll(ctx context.Context) error {
	tokens, err := c.api.ClaimTokens(ctx)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	c.claimed.Add(int64(len(tokens)))
	if c.cfg.Sink != nil {
		c.cfg.Sink(tokens)
	}
	return nil
}
