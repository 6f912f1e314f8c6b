package locker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
)

// LocalLocker is an in-process Locker. Each key owns a one-slot channel;
// holding the slot is holding the lock.
type LocalLocker struct {
	mu          sync.Mutex
	slots       map[string]*slot
	waitTimeout time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

var _ Locker = (*LocalLocker)(nil)

// NewLocalLocker creates a LocalLocker. A zero waitTimeout waits until ctx is done.
func NewLocalLocker(waitTimeout time.Duration) *LocalLocker {
	return &LocalLocker{
		slots:       make(map[string]*slot),
		waitTimeout: waitTimeout,
	}
}

// Lock blocks until key is free, ctx is done or the wait timeout passes
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquireSlot(key)

	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(key, s)
		return nil, fmt.Errorf("lock %s: %w: %w", key, auctionerrors.ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.releaseSlot(key, s)
		})
	}, nil
}

func (l *LocalLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

// releaseSlot drops the slot once nobody holds or waits for it
func (l *LocalLocker) releaseSlot(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
