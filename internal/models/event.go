package models

import "time"

// EventRecord is the value persisted for every ingested webhook.
type EventRecord struct {
	ID         string         `json:"id"`
	Namespace  string         `json:"namespace"`
	ReceivedAt time.Time      `json:"receivedAt"`
	Body       map[string]any `json:"body"`
}

// EventPage is one page of events within a namespace.
type EventPage struct {
	Events       []EventRecord `json:"events"`
	Cursor       string        `json:"cursor,omitempty"`
	ListComplete bool          `json:"listComplete"`
	Error        string        `json:"error,omitempty"`
}

// NamespaceScan is the result of a best-effort namespace discovery.
// Complete is false when the scan cap stopped the scan early, in which
// case Keys may be missing namespaces.
type NamespaceScan struct {
	Keys     []string `json:"keys"`
	Complete bool     `json:"scanComplete"`
	Scanned  int      `json:"scanned"`
	Error    string   `json:"error,omitempty"`
}

// IngestResponse acknowledges an accepted webhook.
type IngestResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// DeleteRequest selects events of one namespace to remove.
type DeleteRequest struct {
	Namespace string   `json:"namespace"`
	IDs       []string `json:"ids"`
}

// DeleteResponse reports how many deletes were issued.
type DeleteResponse struct {
	OK      bool `json:"ok"`
	Deleted int  `json:"deleted"`
}

// IngestionStats counts write path outcomes since the process started.
type IngestionStats struct {
	TotalEvents      int64     `json:"total_events"`
	TotalBytes       int64     `json:"total_bytes"`
	SuccessfulEvents int64     `json:"successful_events"`
	FailedEvents     int64     `json:"failed_events"`
	LastEvent        time.Time `json:"last_event"`
}
