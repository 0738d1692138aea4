package send

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSelectionCancelled is returned to a waiter whose destination
	// selection was cancelled or superseded by a newer request.
	ErrSelectionCancelled = errors.New("destination selection cancelled")

	// ErrNoPendingSelection is returned by Resolve or Cancel when no
	// selection is outstanding.
	ErrNoPendingSelection = errors.New("no pending destination selection")
)

// Pending is the single-slot rendezvous between a send that needs a
// destination and the interactive picker that supplies one. At most one
// selection is outstanding; starting a new one cancels the previous waiter.
type Pending struct {
	mu  sync.Mutex
	cur *Request
}

// Request is one outstanding destination selection.
type Request struct {
	dest   chan Destination
	cancel chan struct{}
}

func NewPending() *Pending {
	return &Pending{}
}

// Start opens a new selection, displacing any prior one. The displaced
// waiter's Wait returns ErrSelectionCancelled.
func (p *Pending) Start() *Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur != nil {
		close(p.cur.cancel)
	}
	p.cur = &Request{
		dest:   make(chan Destination, 1),
		cancel: make(chan struct{}),
	}
	return p.cur
}

// Resolve completes the outstanding selection with the chosen destination.
func (p *Pending) Resolve(dest Destination) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		return ErrNoPendingSelection
	}
	p.cur.dest <- dest
	p.cur = nil
	return nil
}

// Cancel abandons the outstanding selection, releasing its waiter.
func (p *Pending) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		return ErrNoPendingSelection
	}
	close(p.cur.cancel)
	p.cur = nil
	return nil
}

// Wait blocks until the selection is resolved, cancelled, or ctx expires.
func (r *Request) Wait(ctx context.Context) (Destination, error) {
	select {
	case <-ctx.Done():
		return Destination{}, ctx.Err()
	case <-r.cancel:
		return Destination{}, ErrSelectionCancelled
	case dest := <-r.dest:
		return dest, nil
	}
}
