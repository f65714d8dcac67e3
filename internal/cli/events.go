package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hexix23/webhook-catcher-workers/internal/models"
	"github.com/Hexix23/webhook-catcher-workers/internal/service"
)

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and delete stored events",
	}
	cmd.AddCommand(
		newEventsListCmd(a),
		newEventsGetCmd(a),
		newEventsDeleteCmd(a),
	)
	return cmd
}

func newEventsListCmd(a *app) *cobra.Command {
	var (
		namespace string
		limit     int
		cursor    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of events in a namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer(cmd)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *service.Service) error {
				page, err := svc.ListEvents(cmd.Context(), namespace, limit, cursor)
				if err != nil {
					return err
				}
				if ok, err := p.structured(page); ok {
					return err
				}

				t := newTable("ID", "RECEIVED", "BODY")
				for _, ev := range page.Events {
					t.addRow(ev.ID, ev.ReceivedAt.Format(time.RFC3339), summarizeBody(ev.Body, 60))
				}
				t.render(p.out)
				if !page.ListComplete {
					fmt.Fprintf(p.out, "\nmore events available: --cursor %s\n", page.Cursor)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace (default NO-KEY)")
	cmd.Flags().IntVarP(&limit, "limit", "l", service.DefaultPageSize, "events per page (1-200)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "cursor returned by a previous page")
	return cmd
}

func newEventsGetCmd(a *app) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer(cmd)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *service.Service) error {
				record, err := svc.GetEvent(cmd.Context(), namespace, args[0])
				if err != nil {
					return err
				}
				if ok, err := p.structured(record); ok {
					return err
				}
				return printRecord(p, record)
			})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace (default NO-KEY)")
	return cmd
}

func newEventsDeleteCmd(a *app) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete events by id (at most 500 per call)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer(cmd)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *service.Service) error {
				deleted, err := svc.DeleteEvents(cmd.Context(), namespace, args)
				if err != nil {
					return err
				}
				if ok, err := p.structured(models.DeleteResponse{OK: true, Deleted: deleted}); ok {
					return err
				}
				p.success("Deleted %d event(s)", deleted)
				if len(args) > deleted {
					p.warn("%d id(s) beyond the batch limit were ignored", len(args)-deleted)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace (default NO-KEY)")
	return cmd
}

func printRecord(p *printer, record *models.EventRecord) error {
	fmt.Fprintf(p.out, "ID:        %s\n", record.ID)
	fmt.Fprintf(p.out, "Namespace: %s\n", record.Namespace)
	fmt.Fprintf(p.out, "Received:  %s\n", record.ReceivedAt.Format(time.RFC3339Nano))

	t := newTable("FIELD", "VALUE")
	for _, key := range sortedKeys(record.Body) {
		t.addRow(key, formatScalar(record.Body[key]))
	}
	fmt.Fprintln(p.out)
	t.render(p.out)
	return nil
}

// summarizeBody renders body as compact JSON cut to width runes.
func summarizeBody(body map[string]any, width int) string {
	data, err := json.Marshal(body)
	if err != nil {
		return "?"
	}
	runes := []rune(string(data))
	if len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return string(runes)
}

func formatScalar(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
