package store

import (
	"sync"

	"github.com/selemilka/hivewatch/internal/hwlog"
)

// broadcaster fans published snapshots out to watcher channels.
// Publish never blocks: a watcher whose buffer is full misses that
// snapshot and catches up on the next one.
type broadcaster[T any] struct {
	topic string

	mu       sync.RWMutex
	watchers []chan T
}

func (b *broadcaster[T]) watch(bufSize int) <-chan T {
	if bufSize <= 0 {
		bufSize = 8
	}
	ch := make(chan T, bufSize)

	b.mu.Lock()
	b.watchers = append(b.watchers, ch)
	b.mu.Unlock()
	return ch
}

func (b *broadcaster[T]) unwatch(ch <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, w := range b.watchers {
		if w == ch {
			b.watchers = append(b.watchers[:i], b.watchers[i+1:]...)
			close(w)
			return
		}
	}
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.watchers {
		select {
		case ch <- v:
			delivered++
		default:
		}
	}
	if len(b.watchers) > 0 {
		hwlog.For("store").Debug("published snapshot", "topic", b.topic, "delivered", delivered, "watchers", len(b.watchers))
	}
}

func (b *broadcaster[T]) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.watchers)
}

func (b *broadcaster[T]) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		close(ch)
	}
	b.watchers = nil
}
