package backend

import (
	"context"
	"sync"

	"github.com/uber/bpsync/src/bpsync/entity"
)

// Future is the pending acknowledgment of one request.
type Future struct {
	once sync.Once
	done chan struct{}
	ack  entity.Ack
	err  error
}

// NewFuture returns an unresolved Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a Future already resolved with ack.
func Resolved(ack entity.Ack) *Future {
	f := NewFuture()
	f.Resolve(ack)
	return f
}

// Failed returns a Future already failed with err.
func Failed(err error) *Future {
	f := NewFuture()
	f.Reject(err)
	return f
}

// Resolve completes the Future with an acknowledgment. Only the first completion counts.
func (f *Future) Resolve(ack entity.Ack) bool {
	return f.complete(ack, nil)
}

// Reject completes the Future with an error. Only the first completion counts.
func (f *Future) Reject(err error) bool {
	return f.complete(entity.Ack{}, err)
}

func (f *Future) complete(ack entity.Ack, err error) bool {
	completed := false
	f.once.Do(func() {
		f.ack, f.err = ack, err
		close(f.done)
		completed = true
	})
	return completed
}

// Done is closed once the Future completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome. It must only be called after Done is closed.
func (f *Future) Result() (entity.Ack, error) {
	return f.ack, f.err
}

// Wait blocks until the Future completes or ctx is done.
func (f *Future) Wait(ctx context.Context) (entity.Ack, error) {
	select {
	case <-f.done:
		return f.ack, f.err
	case <-ctx.Done():
		return entity.Ack{}, ctx.Err()
	}
}
