package service

import (
	"context"
	"sort"

	"github.com/Hexix23/webhook-catcher-workers/internal/eventkey"
	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
	"github.com/Hexix23/webhook-catcher-workers/internal/models"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
)

const (
	// ScanCap is the maximum number of keys one namespace scan examines.
	ScanCap = 2000

	scanPageSize = store.MaxListLimit
)

// Scanner discovers namespaces by walking the whole key space. The scan
// stops after ScanCap keys, so with many events namespaces may be missed;
// NamespaceScan.Complete reports whether that happened.
type Scanner struct {
	store store.EventStore
	gate  *Gate
}

// NewScanner creates a Scanner over st. With a restricted gate only allowed
// namespaces are reported.
func NewScanner(st store.EventStore, gate *Gate) *Scanner {
	return &Scanner{store: st, gate: gate}
}

// ListNamespaces returns the distinct namespaces seen in ascending order,
// never including eventkey.NoKey.
func (s *Scanner) ListNamespaces(ctx context.Context) (*models.NamespaceScan, error) {
	seen := make(map[string]struct{})
	scanned := 0
	complete := false
	cursor := ""

	for scanned < ScanCap {
		res, err := s.store.List(ctx, store.ListOptions{
			Cursor: cursor,
			Limit:  min(scanPageSize, ScanCap-scanned),
		})
		if err != nil {
			return nil, err
		}

		scanned += len(res.Keys)
		for _, key := range res.Keys {
			ns := eventkey.Namespace(key)
			if ns == eventkey.NoKey || !s.gate.IsAllowed(ns) {
				continue
			}
			seen[ns] = struct{}{}
		}

		if res.Complete {
			complete = true
			break
		}
		cursor = res.Cursor
	}

	metrics.NamespaceScanKeys.Observe(float64(scanned))
	if !complete {
		metrics.NamespaceScanTruncated.Inc()
	}

	keys := make([]string, 0, len(seen))
	for ns := range seen {
		keys = append(keys, ns)
	}
	sort.Strings(keys)

	return &models.NamespaceScan{
		Keys:     keys,
		Complete: complete,
		Scanned:  scanned,
	}, nil
}
