// Package cli implements the catcher command line: the HTTP server and
// administrative commands working directly against the configured store.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hexix23/webhook-catcher-workers/common/logging"
	"github.com/Hexix23/webhook-catcher-workers/internal/config"
	"github.com/Hexix23/webhook-catcher-workers/internal/service"
)

// app carries state shared by all commands of one invocation.
type app struct {
	cfgFile string
	output  string

	cfg    *config.Config
	logger *logging.Logger

	// openBackend is swapped in tests.
	openBackend func(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Backend, error)
}

// NewRootCmd builds the catcher command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{openBackend: OpenBackend})
}

// Execute runs the command line with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "catcher",
		Short: "Webhook catcher",
		Long: `catcher stores flat JSON webhooks per namespace and lets you page
through, discover and delete them.

Run "catcher serve" to accept webhooks over HTTP, or use the other commands
to inspect the configured store directly.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./config.yaml or /etc/catcher/config.yaml)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", FormatTable, "output format: table, json, yaml")

	root.AddCommand(
		newServeCmd(a),
		newNamespacesCmd(a),
		newEventsCmd(a),
		newTailCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// Logs go to stderr so stdout stays parseable.
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(),
		logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format).
		With(logging.Service("catcher"))
	return nil
}

func (a *app) printer(cmd *cobra.Command) (*printer, error) {
	return newPrinter(cmd.OutOrStdout(), a.output)
}

// withService opens the backend, builds a Service over it and runs fn.
func (a *app) withService(cmd *cobra.Command, fn func(svc *service.Service) error) error {
	ctx := cmd.Context()
	b, err := a.openBackend(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			a.logger.Warn("failed to close store", logging.Error(err))
		}
	}()

	svc := service.New(b.Store, service.Options{
		Allowlist: a.cfg.Namespaces.Allowlist(),
		Retention: a.cfg.Retention.TTL(),
		Logger:    a.logger,
	})
	return fn(svc)
}
