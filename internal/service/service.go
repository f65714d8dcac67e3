// Package service implements the webhook catcher's operations on top of an
// event store: ingestion, paginated listing, namespace discovery and batch
// deletion. Every operation goes through the namespace Gate first.
package service

import (
	"time"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/internal/notify"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
	"github.com/Hexix23/webhook-catcher-workers/internal/validator"
)

// Options configures New. Zero values are usable.
type Options struct {
	// Allowlist restricts namespaces; empty allows all.
	Allowlist []string

	// Retention is the TTL given to stored events; non-positive disables expiry.
	Retention time.Duration

	Validator *validator.Chain
	Notifier  notify.Notifier
	Logger    *logging.Logger
}

// Service bundles every operation behind one value.
type Service struct {
	*IngestService
	*Lister
	*Scanner
	*Deleter

	gate  *Gate
	store store.EventStore
}

// New builds a Service over st.
func New(st store.EventStore, opts Options) *Service {
	gate := NewGate(opts.Allowlist)
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With(logging.Service("webhook-catcher"))

	return &Service{
		IngestService: NewIngestService(st, gate, opts.Validator, opts.Notifier, logger, opts.Retention),
		Lister:        NewLister(st, gate, logger),
		Scanner:       NewScanner(st, gate),
		Deleter:       NewDeleter(st, gate, opts.Notifier, logger),
		gate:          gate,
		store:         st,
	}
}

// CheckNamespace validates namespace and applies the allowlist without
// touching the store.
func (s *Service) CheckNamespace(namespace string) error {
	return s.gate.Check(namespace)
}

// Gate returns the namespace gate shared by all operations.
func (s *Service) Gate() *Gate {
	return s.gate
}

// Store returns the underlying event store.
func (s *Service) Store() store.EventStore {
	return s.store
}
