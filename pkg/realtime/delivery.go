package realtime

import (
	"context"
	"sync"
)

// Delivery is the asynchronous result of handing a Message to a Sink.
// It resolves exactly once; handlers attached after resolution run
// immediately on the caller's goroutine.
type Delivery struct {
	mu        sync.Mutex
	done      chan struct{}
	resolved  bool
	err       error
	onSuccess []func()
	onFailure []func(error)
}

// NewDelivery returns an unresolved delivery.
func NewDelivery() *Delivery {
	return &Delivery{done: make(chan struct{})}
}

// Delivered returns a delivery that already succeeded.
func Delivered() *Delivery {
	d := NewDelivery()
	d.Resolve(nil)
	return d
}

// Failed returns a delivery that already failed with err.
func Failed(err error) *Delivery {
	d := NewDelivery()
	d.Resolve(err)
	return d
}

// Resolve completes the delivery. A nil err marks success. Only the first
// call has any effect.
func (d *Delivery) Resolve(err error) {
	d.mu.Lock()
	if d.resolved {
		d.mu.Unlock()
		return
	}
	d.resolved = true
	d.err = err
	success, failure := d.onSuccess, d.onFailure
	d.onSuccess, d.onFailure = nil, nil
	close(d.done)
	d.mu.Unlock()

	if err == nil {
		for _, fn := range success {
			fn()
		}
		return
	}
	for _, fn := range failure {
		fn(err)
	}
}

// OnSuccess registers fn to run when the delivery succeeds.
func (d *Delivery) OnSuccess(fn func()) *Delivery {
	d.mu.Lock()
	if !d.resolved {
		d.onSuccess = append(d.onSuccess, fn)
		d.mu.Unlock()
		return d
	}
	err := d.err
	d.mu.Unlock()
	if err == nil {
		fn()
	}
	return d
}

// OnFailure registers fn to run when the delivery fails.
func (d *Delivery) OnFailure(fn func(error)) *Delivery {
	d.mu.Lock()
	if !d.resolved {
		d.onFailure = append(d.onFailure, fn)
		d.mu.Unlock()
		return d
	}
	err := d.err
	d.mu.Unlock()
	if err != nil {
		fn(err)
	}
	return d
}

// Done is closed once the delivery resolves.
func (d *Delivery) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until the delivery resolves or ctx is done.
func (d *Delivery) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
