package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hexix23/webhook-catcher-workers/common/middleware"
	"github.com/Hexix23/webhook-catcher-workers/internal/handlers"
)

// NewRouter constructs a ServeMux with the catcher routes registered.
// A non-empty apiToken protects the webhook and API routes.
func NewRouter(h *handlers.WebhookHandler, apiToken string) http.Handler {
	protect := middleware.RequireToken(apiToken)

	api := http.NewServeMux()
	api.HandleFunc("POST /webhook", h.HandleWebhook)
	api.HandleFunc("GET /api/events", h.ListEvents)
	api.HandleFunc("GET /api/events/{id}", h.GetEvent)
	api.HandleFunc("POST /api/events/delete", h.DeleteEvents)
	api.HandleFunc("GET /api/namespaces", h.ListNamespaces)

	mux := http.NewServeMux()
	mux.Handle("/webhook", protect(api))
	mux.Handle("/api/", protect(api))

	// Health endpoints
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
