package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/internal/eventkey"
	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
	"github.com/Hexix23/webhook-catcher-workers/internal/models"
	"github.com/Hexix23/webhook-catcher-workers/internal/notify"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
	"github.com/Hexix23/webhook-catcher-workers/internal/validator"
)

// IngestService owns the write path and single event lookups.
type IngestService struct {
	store     store.EventStore
	gate      *Gate
	validator *validator.Chain
	notifier  notify.Notifier
	logger    *logging.Logger
	retention time.Duration
	now       func() time.Time

	stats      models.IngestionStats
	statsMutex sync.RWMutex
}

// NewIngestService wires the write path. A non-positive retention stores
// events without expiry.
func NewIngestService(st store.EventStore, gate *Gate, chain *validator.Chain, notifier notify.Notifier, logger *logging.Logger, retention time.Duration) *IngestService {
	if chain == nil {
		chain = validator.Default()
	}
	if notifier == nil {
		notifier = notify.NoOp{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestService{
		store:     st,
		gate:      gate,
		validator: chain,
		notifier:  notifier,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// Ingest validates raw as a flat JSON object and stores it under namespace.
// An empty namespace stores the event under eventkey.NoKey. Nothing is
// persisted when validation fails.
func (s *IngestService) Ingest(ctx context.Context, namespace string, raw []byte) (*models.EventRecord, error) {
	namespace = eventkey.OrDefault(namespace)

	record, value, err := s.prepare(ctx, namespace, raw)
	if err != nil {
		s.updateStats(0, false)
		metrics.EventsTotal.WithLabelValues(resultLabel(err)).Inc()
		return nil, err
	}

	key := eventkey.Encode(record.Namespace, record.ID)
	if err := s.store.Put(ctx, key, value, s.retention); err != nil {
		s.updateStats(0, false)
		metrics.EventsTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("store event: %w", err)
	}

	s.updateStats(len(raw), true)
	metrics.EventsTotal.WithLabelValues("accepted").Inc()
	metrics.EventBytesTotal.Add(float64(len(raw)))

	if err := s.notifier.EventReceived(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "event notification failed",
			logging.Namespace(record.Namespace),
			logging.EventID(record.ID),
			logging.Error(err))
	}

	return record, nil
}

func (s *IngestService) prepare(ctx context.Context, namespace string, raw []byte) (*models.EventRecord, []byte, error) {
	if err := s.gate.Check(namespace); err != nil {
		return nil, nil, err
	}

	body, err := s.validator.Payload(ctx, raw)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	id, err := eventkey.NewIDAt(now)
	if err != nil {
		return nil, nil, err
	}

	record := &models.EventRecord{
		ID:         id,
		Namespace:  namespace,
		ReceivedAt: now.UTC(),
		Body:       body,
	}
	value, err := json.Marshal(record)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal event: %w", err)
	}
	return record, value, nil
}

// GetEvent returns one stored event or store.ErrNotFound.
func (s *IngestService) GetEvent(ctx context.Context, namespace, id string) (*models.EventRecord, error) {
	namespace = eventkey.OrDefault(namespace)
	if err := s.gate.Check(namespace); err != nil {
		return nil, err
	}

	value, err := s.store.Get(ctx, eventkey.Encode(namespace, id))
	if err != nil {
		return nil, err
	}
	record, err := decodeRecord(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	return record, nil
}

// Stats returns a snapshot of write path counters.
func (s *IngestService) Stats() models.IngestionStats {
	s.statsMutex.RLock()
	defer s.statsMutex.RUnlock()
	return s.stats
}

func (s *IngestService) updateStats(bytes int, success bool) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TotalEvents++
	s.stats.TotalBytes += int64(bytes)
	s.stats.LastEvent = s.now()

	if success {
		s.stats.SuccessfulEvents++
	} else {
		s.stats.FailedEvents++
	}
}

// decodeRecord parses a stored value, keeping body numbers as json.Number.
func decodeRecord(value []byte) (*models.EventRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var record models.EventRecord
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &record, nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, validator.ErrInvalidJSON):
		return "invalid_json"
	case errors.Is(err, validator.ErrNotObject):
		return "not_object"
	case errors.Is(err, validator.ErrNestedValue):
		return "nested_value"
	case errors.Is(err, eventkey.ErrInvalidNamespace):
		return "invalid_namespace"
	case errors.Is(err, ErrForbiddenNamespace):
		return "forbidden_namespace"
	default:
		return "error"
	}
}
