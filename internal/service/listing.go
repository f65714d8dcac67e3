package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/internal/eventkey"
	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
	"github.com/Hexix23/webhook-catcher-workers/internal/models"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
)

const (
	// DefaultPageSize is used when a caller does not ask for a page size.
	DefaultPageSize = 50

	// MaxPageSize bounds the number of events per page.
	MaxPageSize = 200
)

// Lister pages through the events of one namespace.
type Lister struct {
	store  store.EventStore
	gate   *Gate
	logger *logging.Logger
}

// NewLister creates a Lister reading from st.
func NewLister(st store.EventStore, gate *Gate, logger *logging.Logger) *Lister {
	if logger == nil {
		logger = logging.Default()
	}
	return &Lister{store: st, gate: gate, logger: logger}
}

// ClampPageSize bounds limit to [1, MaxPageSize].
func ClampPageSize(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ListEvents returns up to limit events of namespace in key order, starting
// after cursor. Keys whose value is gone by the time it is fetched are left
// out; ListComplete and Cursor still describe the key page, so a page may
// hold fewer events than limit while more remain.
func (l *Lister) ListEvents(ctx context.Context, namespace string, limit int, cursor string) (*models.EventPage, error) {
	namespace = eventkey.OrDefault(namespace)
	if err := l.gate.Check(namespace); err != nil {
		return nil, err
	}

	res, err := l.store.List(ctx, store.ListOptions{
		Prefix: eventkey.Prefix(namespace),
		Cursor: cursor,
		Limit:  store.ClampLimit(ClampPageSize(limit)),
	})
	if err != nil {
		return nil, err
	}

	events, err := l.fetch(ctx, res.Keys)
	if err != nil {
		return nil, err
	}

	page := &models.EventPage{
		Events:       events,
		ListComplete: res.Complete,
	}
	if !res.Complete {
		page.Cursor = res.Cursor
	}
	return page, nil
}

// fetch loads every key concurrently and keeps the listing order.
func (l *Lister) fetch(ctx context.Context, keys []string) ([]models.EventRecord, error) {
	records := make([]*models.EventRecord, len(keys))
	errs := make([]error, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			value, err := l.store.Get(ctx, key)
			if err != nil {
				errs[i] = err
				return
			}
			record, err := decodeRecord(value)
			if err != nil {
				l.logger.WarnContext(ctx, "dropping undecodable event",
					logging.EventID(key),
					logging.Error(err))
				return
			}
			records[i] = record
		}(i, key)
	}
	wg.Wait()

	events := make([]models.EventRecord, 0, len(keys))
	vanished := 0
	for i, record := range records {
		if err := errs[i]; err != nil {
			if errors.Is(err, store.ErrNotFound) {
				vanished++
				continue
			}
			return nil, fmt.Errorf("fetch %s: %w", keys[i], err)
		}
		if record != nil {
			events = append(events, *record)
		}
	}
	if vanished > 0 {
		metrics.VanishedKeys.Add(float64(vanished))
		l.logger.DebugContext(ctx, "listed keys vanished before fetch", logging.Count(vanished))
	}
	return events, nil
}
