// Package notify announces stored and deleted events to interested parties.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Hexix23/webhook-catcher-workers/common/messaging"
	"github.com/Hexix23/webhook-catcher-workers/internal/metrics"
	"github.com/Hexix23/webhook-catcher-workers/internal/models"
)

// Notifier is told about every stored event and every batch delete.
// Notifications are best effort; callers log failures and move on.
type Notifier interface {
	EventReceived(ctx context.Context, record *models.EventRecord) error
	EventsDeleted(ctx context.Context, namespace string, ids []string) error
}

// NoOp discards every notification.
type NoOp struct{}

func (NoOp) EventReceived(context.Context, *models.EventRecord) error { return nil }

func (NoOp) EventsDeleted(context.Context, string, []string) error { return nil }

// DeletedNotice is the payload published after a batch delete.
type DeletedNotice struct {
	Namespace string    `json:"namespace"`
	IDs       []string  `json:"ids"`
	DeletedAt time.Time `json:"deletedAt"`
}

// BusNotifier publishes notifications as JSON messages.
type BusNotifier struct {
	publisher messaging.Publisher
	source    string
}

// NewBusNotifier publishes through p. source is attached to every message
// as the "source" header.
func NewBusNotifier(p messaging.Publisher, source string) *BusNotifier {
	return &BusNotifier{publisher: p, source: source}
}

// EventReceived publishes the full record on the namespace's received subject.
func (n *BusNotifier) EventReceived(ctx context.Context, record *models.EventRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal event notice: %w", err)
	}
	return n.publish(ctx, messaging.EventsReceivedSubject(record.Namespace), data, record.Namespace)
}

// EventsDeleted publishes the ids a batch delete was issued for.
func (n *BusNotifier) EventsDeleted(ctx context.Context, namespace string, ids []string) error {
	data, err := json.Marshal(DeletedNotice{
		Namespace: namespace,
		IDs:       ids,
		DeletedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal delete notice: %w", err)
	}
	return n.publish(ctx, messaging.EventsDeletedSubject(namespace), data, namespace)
}

func (n *BusNotifier) publish(ctx context.Context, subject string, data []byte, namespace string) error {
	msg := &messaging.Message{
		Subject: subject,
		Data:    data,
		Metadata: map[string]string{
			"namespace": namespace,
		},
	}
	if n.source != "" {
		msg.Metadata["source"] = n.source
	}
	if err := n.publisher.PublishMsg(ctx, msg); err != nil {
		metrics.NotifyErrors.Inc()
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

var (
	_ Notifier = NoOp{}
	_ Notifier = (*BusNotifier)(nil)
)
