package cli

import (
	"github.com/spf13/cobra"

	"github.com/Hexix23/webhook-catcher-workers/internal/service"
)

func newNamespacesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "namespaces",
		Aliases: []string{"ns"},
		Short:   "List namespaces that hold events",
		Long: `List namespaces found by scanning stored keys.

The scan examines at most 2000 keys, so with many stored events some
namespaces may be missing; a warning is printed when that happens.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer(cmd)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *service.Service) error {
				scan, err := svc.ListNamespaces(cmd.Context())
				if err != nil {
					return err
				}
				if ok, err := p.structured(scan); ok {
					return err
				}

				t := newTable("NAMESPACE")
				for _, ns := range scan.Keys {
					t.addRow(ns)
				}
				t.render(p.out)
				if !scan.Complete {
					p.warn("scan stopped after %d keys; the list may be incomplete", scan.Scanned)
				}
				return nil
			})
		},
	}
}
