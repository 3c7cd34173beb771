package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/lms-backend/internal/realtime"
)

// MemoryBus delivers events to in-process subscribers. It backs single-node
// deployments without redis and tests.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[int]chan realtime.Event
	nextID int
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: map[int]chan realtime.Event{}}
}

// Publish never blocks; a subscriber with a full buffer misses the event.
func (b *MemoryBus) Publish(ctx context.Context, evt realtime.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errBusClosed
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) StartForwarder(ctx context.Context, onMsg func(evt realtime.Event)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errBusClosed
	}
	id := b.nextID
	b.nextID++
	ch := make(chan realtime.Event, 64)
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.mu.Lock()
				if _, ok := b.subs[id]; ok {
					delete(b.subs, id)
					close(ch)
				}
				b.mu.Unlock()
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				onMsg(evt)
			}
		}
	}()
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	return nil
}
