package store

import (
	"context"
	"errors"
	"time"

	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
)

// Instrumented decorates an EventStore with latency and error metrics.
// ErrNotFound and ErrInvalidCursor are outcomes, not failures, and are not
// counted as errors.
type Instrumented struct {
	next EventStore
}

// Instrument wraps next.
func Instrument(next EventStore) *Instrumented {
	return &Instrumented{next: next}
}

// Unwrap returns the decorated store.
func (i *Instrumented) Unwrap() EventStore {
	return i.next
}

func (i *Instrumented) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := i.next.Put(ctx, key, value, ttl)
	observe("put", start, err)
	return err
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := i.next.Get(ctx, key)
	observe("get", start, err)
	return value, err
}

func (i *Instrumented) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	start := time.Now()
	res, err := i.next.List(ctx, opts)
	observe("list", start, err)
	return res, err
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.Delete(ctx, key)
	observe("delete", start, err)
	return err
}

func (i *Instrumented) Ping(ctx context.Context) error {
	return i.next.Ping(ctx)
}

func (i *Instrumented) Close() error {
	return i.next.Close()
}

func observe(op string, start time.Time, err error) {
	metrics.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidCursor) {
		metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}

var _ EventStore = (*Instrumented)(nil)
