// Package cli implements quakectl, the operator command line for the alert
// artifact, the live feed, and on-demand reports.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/spf13/cobra"
)

// AlertReader reads the persisted alert text.
type AlertReader interface {
	Read() (string, bool, error)
}

// ReportBuilder produces the plain-language report.
type ReportBuilder interface {
	BuildReport(ctx context.Context, events []domain.Event, enrichment []domain.Enrichment, persona string) (domain.Report, error)
}

// Deps are the collaborators the commands run against. Enricher may be nil.
type Deps struct {
	Alerts   AlertReader
	Events   domain.EventSource
	Enricher domain.Enricher
	Reports  ReportBuilder
	Persona  string
	Logger   *slog.Logger
}

// DepsLoader builds Deps on demand so that help and usage never need config.
type DepsLoader func() (*Deps, error)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRoot(LoadDeps).ExecuteContext(ctx)
}

func NewRoot(load DepsLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "quakectl",
		Short:         "Inspect New Zealand earthquake alerts and reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		StatusCmd(load),
		EventsCmd(load),
		ReportCmd(load),
	)
	return root
}
