// Package notifier fans values out to any number of subscribers without blocking the sender.
package notifier

import (
	"sync"

	"go.uber.org/atomic"
)

// DefaultBufferSize is the per-subscriber buffer used when none is configured.
// Publishing never blocks; a subscriber that falls this far behind loses its oldest values.
const DefaultBufferSize = 64

// Broadcaster delivers every published value to every current subscriber.
type Broadcaster[T any] interface {
	// Subscribe returns a channel of published values and a function that ends the subscription.
	// The channel is closed when the subscription ends or the broadcaster is closed.
	Subscribe() (<-chan T, func())
	// Publish delivers v to all subscribers. It does nothing after Close.
	Publish(v T)
	// Len returns the number of active subscriptions.
	Len() int
	// Dropped returns how many values were discarded for slow subscribers.
	Dropped() uint64
	Close()
}

type broadcaster[T any] struct {
	mu          sync.Mutex
	bufferSize  int
	nextID      int
	subscribers map[int]chan T
	closed      bool
	dropped     *atomic.Uint64
}

// New creates a Broadcaster with the given per-subscriber buffer size.
func New[T any](bufferSize int) Broadcaster[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &broadcaster[T]{
		bufferSize:  bufferSize,
		subscribers: make(map[int]chan T),
		dropped:     atomic.NewUint64(0),
	}
}

func (b *broadcaster[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, b.bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(sub)
			}
		})
	}
}

func (b *broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		for {
			select {
			case ch <- v:
			default:
				// Full: discard the oldest value and retry.
				select {
				case <-ch:
					b.dropped.Inc()
				default:
				}
				continue
			}
			break
		}
	}
}

func (b *broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

func (b *broadcaster[T]) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
