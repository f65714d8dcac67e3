package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Hexix23/webhook-catcher-workers/common/httputil"
	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/internal/eventkey"
	"github.com/Hexix23/webhook-catcher-workers/internal/models"
	"github.com/Hexix23/webhook-catcher-workers/internal/ratelimit"
	"github.com/Hexix23/webhook-catcher-workers/internal/service"
	"github.com/Hexix23/webhook-catcher-workers/internal/store"
)

// NamespaceHeader carries the namespace of an ingested webhook. The
// "namespace" query parameter is accepted as a fallback.
const NamespaceHeader = "X-Namespace"

// DefaultMaxEventSize bounds webhook bodies when no limit is configured.
const DefaultMaxEventSize = 1 << 20

// EventService is the subset of service.Service the handlers use.
type EventService interface {
	Ingest(ctx context.Context, namespace string, raw []byte) (*models.EventRecord, error)
	GetEvent(ctx context.Context, namespace, id string) (*models.EventRecord, error)
	ListEvents(ctx context.Context, namespace string, limit int, cursor string) (*models.EventPage, error)
	ListNamespaces(ctx context.Context) (*models.NamespaceScan, error)
	DeleteEvents(ctx context.Context, namespace string, ids []string) (int, error)
	CheckNamespace(namespace string) error
	Stats() models.IngestionStats
}

// Pinger reports backend reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WebhookHandler serves the webhook and event API endpoints.
type WebhookHandler struct {
	service      EventService
	pinger       Pinger
	limiter      ratelimit.RateLimiter
	logger       *logging.Logger
	maxEventSize int64
}

// NewWebhookHandler creates the HTTP handlers. limiter may be nil to disable
// rate limiting and maxEventSize <= 0 selects DefaultMaxEventSize.
func NewWebhookHandler(svc EventService, pinger Pinger, limiter ratelimit.RateLimiter, logger *logging.Logger, maxEventSize int64) *WebhookHandler {
	if limiter == nil {
		limiter = ratelimit.NoOpRateLimiter{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if maxEventSize <= 0 {
		maxEventSize = DefaultMaxEventSize
	}
	return &WebhookHandler{
		service:      svc,
		pinger:       pinger,
		limiter:      limiter,
		logger:       logger,
		maxEventSize: maxEventSize,
	}
}

// HandleWebhook stores one flat JSON object.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	namespace := eventkey.OrDefault(httputil.HeaderOrQuery(r, NamespaceHeader, "namespace"))

	// Refused namespaces never reach the limiter, so they leave no state behind.
	if err := h.service.CheckNamespace(namespace); err != nil {
		writeServiceError(w, err)
		return
	}

	allowed, err := h.limiter.Allow(ctx, namespace)
	if err != nil {
		// Fail open: a broken limiter must not stop ingestion.
		h.logger.WarnContext(ctx, "rate limit check failed",
			logging.Namespace(namespace),
			logging.Error(err))
	} else if !allowed {
		httputil.WriteError(w, http.StatusTooManyRequests, CodeRateLimited,
			fmt.Sprintf("rate limit exceeded for namespace %q", namespace))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxEventSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("payload exceeds %d bytes", tooLarge.Limit))
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, CodeInvalidJSON, "failed to read request body")
		return
	}

	record, err := h.service.Ingest(ctx, namespace, body)
	if err != nil {
		status, _ := classify(err)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "ingest failed",
				logging.Namespace(namespace),
				logging.IP(httputil.GetClientIP(r)),
				logging.Error(err))
		}
		writeServiceError(w, err)
		return
	}

	h.logger.DebugContext(ctx, "event stored",
		logging.Namespace(record.Namespace),
		logging.EventID(record.ID))
	httputil.WriteJSON(w, http.StatusOK, models.IngestResponse{OK: true, ID: record.ID})
}

// ListEvents returns one page of events. Store failures degrade to an empty
// page carrying the diagnostic so dashboards keep rendering.
func (h *WebhookHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	namespace := eventkey.OrDefault(q.Get("namespace"))
	limit := httputil.ParseIntParam(q.Get("limit"), service.DefaultPageSize)

	page, err := h.service.ListEvents(ctx, namespace, limit, q.Get("cursor"))
	if errors.Is(err, store.ErrUnavailable) {
		h.logger.WarnContext(ctx, "listing degraded", logging.Namespace(namespace), logging.Error(err))
		httputil.WriteJSON(w, http.StatusOK, models.EventPage{
			Events:       []models.EventRecord{},
			ListComplete: true,
			Error:        err.Error(),
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// GetEvent returns a single event by id.
func (h *WebhookHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	namespace := eventkey.OrDefault(r.URL.Query().Get("namespace"))

	record, err := h.service.GetEvent(r.Context(), namespace, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// ListNamespaces reports the namespaces found by a bounded scan.
func (h *WebhookHandler) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scan, err := h.service.ListNamespaces(ctx)
	if errors.Is(err, store.ErrUnavailable) {
		h.logger.WarnContext(ctx, "namespace scan degraded", logging.Error(err))
		httputil.WriteJSON(w, http.StatusOK, models.NamespaceScan{
			Keys:  []string{},
			Error: err.Error(),
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, scan)
}

// DeleteEvents removes up to service.MaxDeleteBatch events of a namespace.
func (h *WebhookHandler) DeleteEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.DeleteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxEventSize))
	if err := dec.Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, CodeInvalidRequest, "body must be {\"namespace\": string, \"ids\": [string]}")
		return
	}

	deleted, err := h.service.DeleteEvents(ctx, req.Namespace, req.IDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch delete failed",
			logging.Namespace(req.Namespace),
			logging.Count(deleted),
			logging.Error(err))
		writeServiceError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "events deleted",
		logging.Namespace(eventkey.OrDefault(req.Namespace)),
		logging.Count(deleted))
	httputil.WriteJSON(w, http.StatusOK, models.DeleteResponse{OK: true, Deleted: deleted})
}

// Health reports liveness.
func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready reports whether the store answers, along with ingestion counters.
func (h *WebhookHandler) Ready(w http.ResponseWriter, r *http.Request) {
	stats := h.service.Stats()

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"error":  err.Error(),
				"stats":  stats,
			})
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"stats":  stats,
	})
}
