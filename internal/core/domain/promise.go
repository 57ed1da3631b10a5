package domain

import (
	"context"
	"sync"
)

// Promise is the caller-facing handle for a submitted task. Concurrent
// duplicate loads share one promise; its resolution is observed by all of
// them. A promise settles exactly once.
type Promise struct {
	done chan struct{}
	once sync.Once

	result *Result
	err    error
}

// NewPromise creates an unsettled promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolve settles the promise with a result. Later settlements are ignored.
func (p *Promise) Resolve(result *Result) {
	p.once.Do(func() {
		p.result = result
		close(p.done)
	})
}

// Reject settles the promise with an error. Later settlements are ignored.
func (p *Promise) Reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Await blocks until the promise settles or the context is done.
func (p *Promise) Await(ctx context.Context) (*Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the promise has settled.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}
