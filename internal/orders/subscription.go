package orders

import (
	"context"
	"sync"
)

// Subscription is a live view of one user's orders. The first snapshot is
// delivered right after subscribing and a fresh one after every change.
// Only the newest snapshot is kept if the reader falls behind.
// Close must be called to release the underlying listener.
type Subscription struct {
	ch     chan []Order
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

type loadFunc func(ctx context.Context) ([]Order, error)

// startSubscription runs the snapshot loop until ctx is done, changed is closed,
// or a load fails. release runs once the loop exits.
func startSubscription(ctx context.Context, changed <-chan struct{}, load loadFunc, release func()) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		ch:     make(chan []Order, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.ch)
		defer release()

		for {
			snap, err := load(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.setErr(err)
				}
				return
			}
			s.offer(snap)

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changed:
				if !ok {
					return
				}
			}
		}
	}()
	return s
}

func (s *Subscription) offer(snap []Order) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// C yields snapshots. It is closed when the subscription ends.
func (s *Subscription) C() <-chan []Order { return s.ch }

// Err reports why the subscription ended, nil after Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}
