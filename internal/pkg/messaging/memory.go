package messaging

import (
	"context"
	"io"
	"sync"
	"time"
)

// Memory is an in-process broker. Each queue group receives every message
// once; subscribers without a group each receive a copy.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed bool
}

type memorySub struct {
	group string
	ch    chan *memoryMessage
}

// NewMemory constructs an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{subs: map[string][]*memorySub{}}
}

// Close stops accepting publishes. Running consumers exit with their context.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// Publish fans the message out to the current subscribers of destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNATSSubjectRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return PublishResult{}, io.ErrClosedPipe
	}

	now := time.Now()
	seen := map[string]bool{}
	for _, sub := range m.subs[destination] {
		if sub.group != "" {
			if seen[sub.group] {
				continue
			}
			seen[sub.group] = true
		}
		mm := &memoryMessage{topic: destination, body: msg.Body, key: msg.Key, headers: msg.Headers, ts: now}
		select {
		case sub.ch <- mm:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{Topic: destination, Timestamp: now}, nil
}

// Consume registers a subscriber and blocks until ctx is done.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrNATSSubjectRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	group := co.queueGroup
	if group == "" {
		group = co.group
	}
	sub := &memorySub{group: group, ch: make(chan *memoryMessage, 64)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.subs[source] = append(m.subs[source], sub)
	m.mu.Unlock()

	defer m.unsubscribe(source, sub)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case mm := <-sub.ch:
					//nolint:errcheck // handler errors are logged by the handler
					_ = dispatch(ctx, "memory", handler, mm, co.autoAck)
				}
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}

func (m *Memory) unsubscribe(source string, sub *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subs[source]
	for i := range subs {
		if subs[i] == sub {
			m.subs[source] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

type memoryMessage struct {
	topic   string
	body    []byte
	key     []byte
	headers []Header
	ts      time.Time
}

func (m *memoryMessage) Body() []byte               { return m.body }
func (m *memoryMessage) Key() []byte                { return m.key }
func (m *memoryMessage) Headers() []Header          { return m.headers }
func (m *memoryMessage) Topic() string              { return m.topic }
func (m *memoryMessage) Timestamp() time.Time       { return m.ts }
func (m *memoryMessage) Ack(context.Context) error  { return nil }
func (m *memoryMessage) Nack(context.Context) error { return nil }
