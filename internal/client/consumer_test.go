package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

type fakeConsumerAPI struct {
	mu      sync.Mutex
	calls   int
	batches [][]Token
	errs    []error
}

func (f *fakeConsumerAPI) ClaimTokens(context.Context) ([]Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.batches) {
		return f.batches[i], nil
	}
	return []Token{}, nil
}

func (f *fakeConsumerAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestConsumerPoller_DeliversBatches(t *testing.T) {
	// Arrange
	api := &fakeConsumerAPI{
		batches: [][]Token{{{ID: 1}, {ID: 2}}, {}, {{ID: 3}}},
		errs:    []error{nil, &APIError{Status: http.StatusServiceUnavailable}, nil, nil},
	}
	var mu sync.Mutex
	var got []int64
	poller := NewConsumerPoller(api, ConsumerConfig{
		Interval: time.Millisecond,
		Sink: func(tokens []Token) {
			mu.Lock()
			defer mu.Unlock()
			for _, tok := range tokens {
				got = append(got, tok.ID)
			}
		},
	})

	// Act
	poller.Start(context.Background())
	poller.Start(context.Background())
	waitFor(t, func() bool { return api.callCount() >= 4 })
	poller.Stop()
	poller.Stop()

	// Assert
	if poller.Active() {
		t.Fatal("poller still active")
	}
	if err := poller.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 || got[0] != 1 || got[2] != 3 || poller.Claimed() != 3 {
		t.Fatalf("got %v, claimed %d", got, poller.Claimed())
	}
}

func TestConsumerPoller_SessionExpiryStops(t *testing.T) {
	api := &fakeConsumerAPI{errs: []error{nil, &APIError{Status: http.StatusUnauthorized}}}
	poller := NewConsumerPoller(api, ConsumerConfig{Interval: time.Millisecond})

	poller.Start(context.Background())
	err := poller.Wait()

	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Wait() error = %v", err)
	}
	if poller.Active() || api.callCount() != 2 {
		t.Fatalf("active=%v calls=%d", poller.Active(), api.callCount())
	}
}

func TestConsumerPoller_StopBeforeStart(t *testing.T) {
	poller := NewConsumerPoller(&fakeConsumerAPI{}, ConsumerConfig{})

	poller.Stop()

	if poller.Active() || poller.Wait() != nil {
		t.Fatal("stopped poller changed state")
	}
}

type gatedConsumerAPI struct {
	entered chan struct{}
	release chan struct{}
	batch   []Token
}

func (g *gatedConsumerAPI) ClaimTokens(ctx context.Context) ([]Token, error) {
	close(g.entered)
	select {
	case <-g.release:
		return g.batch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestConsumerPoller_StopLetsInFlightClaimFinish(t *testing.T) {
	// Arrange
	api := &gatedConsumerAPI{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		batch:   []Token{{ID: 7}},
	}
	var mu sync.Mutex
	var got []int64
	poller := NewConsumerPoller(api, ConsumerConfig{
		Interval: time.Hour,
		Sink: func(tokens []Token) {
			mu.Lock()
			defer mu.Unlock()
			for _, tok := range tokens {
				got = append(got, tok.ID)
			}
		},
	})

	// Act
	poller.Start(context.Background())
	<-api.entered
	stopped := make(chan struct{})
	go func() {
		poller.Stop()
		close(stopped)
	}()
	time.Sleep(20 * time.Millisecond)
	close(api.release)
	<-stopped

	// Assert
	if err := poller.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != 7 || poller.Claimed() != 1 {
		t.Fatalf("sink got %v, claimed %d", got, poller.Claimed())
	}
}

func TestConsumerPoller_StopsOnFailures(t *testing.T) {
	unavailable := &APIError{Status: http.StatusServiceUnavailable, Message: "busy"}
	badRequest := &APIError{Status: http.StatusBadRequest, Message: "bad"}

	tests := []struct {
		name      string
		errs      []error
		wantErr   error
		wantCalls int
	}{
		{
			name:      "consecutive transient failures",
			errs:      []error{nil, unavailable, unavailable, unavailable},
			wantErr:   ErrTooManyFailures,
			wantCalls: 4,
		},
		{
			name:      "success resets the count",
			errs:      []error{unavailable, unavailable, nil, unavailable, unavailable, unavailable},
			wantErr:   ErrTooManyFailures,
			wantCalls: 6,
		},
		{
			name:      "non-transient failure",
			errs:      []error{badRequest},
			wantErr:   badRequest,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			api := &fakeConsumerAPI{errs: tt.errs}
			poller := NewConsumerPoller(api, ConsumerConfig{Interval: time.Millisecond})

			// Act
			poller.Start(context.Background())
			err := poller.Wait()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Wait() error = %v, want %v", err, tt.wantErr)
			}
			if poller.Active() || api.callCount() != tt.wantCalls {
				t.Fatalf("active=%v calls=%d, want %d", poller.Active(), api.callCount(), tt.wantCalls)
			}
		})
	}
}
