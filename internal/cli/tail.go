package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/common/messaging"
	"github.com/Hexix23/webhook-catcher-workers/internal/models"
)

func newTailCmd(a *app) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream events as they are ingested (requires NATS)",
		Long: `Subscribe to ingestion notifications published by "catcher serve" and
print every received event until interrupted. Without --namespace events of
all namespaces are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer(cmd)
			if err != nil {
				return err
			}
			client, err := connectNATS(a.cfg, a.logger, "webhook-catcher-tail")
			if err != nil {
				return err
			}
			defer client.Close()

			subject := messaging.AllEventsReceived
			if namespace != "" {
				subject = messaging.EventsReceivedSubject(namespace)
			}
			return a.tail(cmd.Context(), client, subject, p)
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "only show this namespace")
	return cmd
}

// tail prints every event published on subject until ctx is cancelled.
func (a *app) tail(ctx context.Context, sub messaging.Subscriber, subject string, p *printer) error {
	var mu sync.Mutex
	subscription, err := sub.Subscribe(subject, func(_ context.Context, msg *messaging.Message) error {
		var record models.EventRecord
		if err := json.Unmarshal(msg.Data, &record); err != nil {
			return fmt.Errorf("decode event notice: %w", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if ok, err := p.structured(record); ok {
			return err
		}
		fmt.Fprintf(p.out, "%s  %-20s  %s  %s\n",
			record.ReceivedAt.Format(time.RFC3339),
			record.Namespace,
			record.ID,
			summarizeBody(record.Body, 80))
		return nil
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := subscription.Unsubscribe(); err != nil {
			a.logger.Warn("failed to unsubscribe", logging.Error(err))
		}
	}()

	a.logger.Info("tailing events", "subject", subject)
	<-ctx.Done()
	return nil
}
