package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Delivery is the outcome of fanning one event out.
type Delivery struct {
	Delivered []string
	Failures  []error
}

// Err joins every failed delivery, or returns nil.
func (d Delivery) Err() error {
	return errors.Join(d.Failures...)
}

// Fanout sends each event to all sinks concurrently.
type Fanout struct {
	publishers []Publisher
}

// NewFanout ignores nil publishers.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish waits for every sink. Results keep publisher order.
func (f *Fanout) Publish(ctx context.Context, evt Event) Delivery {
	var d Delivery
	if f.Size() == 0 {
		return d
	}

	errs := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()
			errs[i] = p.Publish(ctx, evt)
		}(i, p)
	}
	wg.Wait()

	for i, p := range f.publishers {
		if errs[i] != nil {
			d.Failures = append(d.Failures, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), errs[i]))
			continue
		}
		d.Delivered = append(d.Delivered, p.ID())
	}
	return d
}

func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases every sink, even after a failure.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
