package cartview

import (
	"context"
	"sync"
)

// slot admits one in-flight request per cart line. Waiters are admitted in
// the order they called acquire.
type slot struct {
	mu   sync.Mutex
	tail chan struct{}
}

// acquire blocks until every earlier caller has released. The returned
// release func must be called exactly once.
func (s *slot) acquire(ctx context.Context) (release func(), err error) {
	mine := make(chan struct{})

	s.mu.Lock()
	prev := s.tail
	s.tail = mine
	s.mu.Unlock()

	release = func() { close(mine) }
	if prev == nil {
		return release, nil
	}

	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		// Keep the chain intact for callers queued behind us.
		go func() {
			<-prev
			close(mine)
		}()
		return nil, ctx.Err()
	}
}
