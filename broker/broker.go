// Package broker fans published values out to subscribers.
package broker

import "sync"

// Broker delivers every published value to all current subscribers.
// Slow subscribers drop values instead of blocking the publisher.
type Broker[T any] struct {
	mu     sync.Mutex
	buf    int
	subs   map[chan T]struct{}
	closed bool
}

// New creates a Broker whose subscriber channels hold buf values.
func New[T any](buf int) *Broker[T] {
	return &Broker[T]{
		buf:  buf,
		subs: make(map[chan T]struct{}),
	}
}

// Publish sends v to every subscriber that has room for it.
func (b *Broker[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Subscribe returns a channel of published values and a function that
// cancels the subscription. The channel is closed on unsubscribe or Close.
func (b *Broker[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, b.buf)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broker[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes all subscriber channels. Later Publish calls are no-ops.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
