package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/internal/eventkey"
	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
	"github.com/Hexix23/webhook-catcher-workers/internal/notify"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
)

// MaxDeleteBatch is the number of ids one batch delete acts on. Extra ids
// are ignored.
const MaxDeleteBatch = 500

// Deleter removes events of one namespace in bounded batches.
type Deleter struct {
	store    store.EventStore
	gate     *Gate
	notifier notify.Notifier
	logger   *logging.Logger
}

// NewDeleter creates a Deleter over st.
func NewDeleter(st store.EventStore, gate *Gate, notifier notify.Notifier, logger *logging.Logger) *Deleter {
	if notifier == nil {
		notifier = notify.NoOp{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Deleter{store: st, gate: gate, notifier: notifier, logger: logger}
}

// DeleteEvents issues one delete per id, for at most MaxDeleteBatch ids, and
// returns how many were issued. Deletes run concurrently and all of them
// finish before DeleteEvents returns. There is no rollback: when some fail
// the others stay deleted, the issued count is still returned, and so is an
// aggregate error wrapping store.ErrUnavailable without per-id detail.
func (d *Deleter) DeleteEvents(ctx context.Context, namespace string, ids []string) (int, error) {
	namespace = eventkey.OrDefault(namespace)
	if err := d.gate.Check(namespace); err != nil {
		return 0, err
	}

	if len(ids) > MaxDeleteBatch {
		ids = ids[:MaxDeleteBatch]
	}
	if len(ids) == 0 {
		return 0, nil
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = d.store.Delete(ctx, eventkey.Encode(namespace, id))
		}(i, id)
	}
	wg.Wait()

	metrics.DeletesIssued.Add(float64(len(ids)))

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		metrics.DeleteFailures.Add(float64(failed))
		return len(ids), fmt.Errorf("%w: %d of %d deletes failed: %w",
			store.ErrUnavailable, failed, len(ids), errors.Join(errs...))
	}

	if err := d.notifier.EventsDeleted(ctx, namespace, ids); err != nil {
		d.logger.WarnContext(ctx, "delete notification failed",
			logging.Namespace(namespace),
			logging.Count(len(ids)),
			logging.Error(err))
	}
	return len(ids), nil
}
