package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/internal/models"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
)

// faultyStore wraps an EventStore and lets tests intercept calls.
type faultyStore struct {
	store.EventStore

	getFunc    func(ctx context.Context, key string) ([]byte, error)
	deleteFunc func(ctx context.Context, key string) error
	listFunc   func(ctx context.Context, opts store.ListOptions) (*store.ListResult, error)
	putFunc    func(ctx context.Context, key string) error
}

func (f *faultyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, key)
	}
	return f.EventStore.Get(ctx, key)
}

func (f *faultyStore) Delete(ctx context.Context, key string) error {
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, key)
	}
	return f.EventStore.Delete(ctx, key)
}

func (f *faultyStore) List(ctx context.Context, opts store.ListOptions) (*store.ListResult, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, opts)
	}
	return f.EventStore.List(ctx, opts)
}

func (f *faultyStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.putFunc != nil {
		if err := f.putFunc(ctx, key); err != nil {
			return err
		}
	}
	return f.EventStore.Put(ctx, key, value, ttl)
}

// recordingNotifier remembers every notification.
type recordingNotifier struct {
	mu       sync.Mutex
	received []*models.EventRecord
	deleted  map[string][]string
	err      error
}

func (n *recordingNotifier) EventReceived(_ context.Context, record *models.EventRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, record)
	return n.err
}

func (n *recordingNotifier) EventsDeleted(_ context.Context, namespace string, ids []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.deleted == nil {
		n.deleted = make(map[string][]string)
	}
	n.deleted[namespace] = append(n.deleted[namespace], ids...)
	return n.err
}

func newTestService(t *testing.T, st store.EventStore, opts Options) *Service {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	svc := New(st, opts)
	svc.IngestService.now = tickingClock(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	return svc
}

func ingestN(t *testing.T, svc *Service, namespace string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		record, err := svc.Ingest(context.Background(), namespace, []byte(`{"n":`+strconv.Itoa(i)+`}`))
		require.NoError(t, err)
		ids = append(ids, record.ID)
	}
	return ids
}

// tickingClock returns a clock that advances one millisecond per call, so
// ids generated in a loop sort in generation order.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
}
