package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/quake-watch/internal/domain"
	"github.com/spf13/cobra"
)

// errNoData is returned when the feed produced nothing to report on.
var errNoData = errors.New("could not fetch earthquake data, please try again later")

func StatusCmd(load DepsLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the active alert written by the watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := load()
			if err != nil {
				return err
			}
			text, ok, err := deps.Alerts.Read()
			if err != nil {
				return err
			}
			if !ok || strings.TrimSpace(text) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no active alert")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(text, "\n"))
			return nil
		},
	}
}

func EventsCmd(load DepsLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print the latest events from the live feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := load()
			if err != nil {
				return err
			}
			events, err := deps.Events.FetchEvents(cmd.Context())
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no events")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tMAG\tDEPTH\tMMI\tLOCATION")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.DisplayTime(), e.MagnitudeString(),
					strconv.FormatFloat(e.DepthKm, 'f', 1, 64), e.Intensity, e.Location)
			}
			return tw.Flush()
		},
	}
}

func ReportCmd(load DepsLoader) *cobra.Command {
	var persona string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a plain-language impact report for the latest events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("persona") {
				persona = deps.Persona
			}

			events, err := deps.Events.FetchEvents(cmd.Context())
			if err != nil {
				return fmt.Errorf("%w: %w", errNoData, err)
			}
			if len(events) == 0 || !events[0].HasMagnitude() {
				return errNoData
			}

			enrichment := domain.EnrichEvents(cmd.Context(), events, deps.Enricher, deps.Logger)
			r, err := deps.Reports.BuildReport(cmd.Context(), events, enrichment, persona)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n\n%s\n", r.Title, r.Summary)
			if len(r.Impacts) > 0 {
				fmt.Fprintln(out)
				for _, im := range r.Impacts {
					fmt.Fprintf(out, "- %s", im.Description)
					if im.Location != "" {
						fmt.Fprintf(out, " (%s", im.Location)
						if im.Magnitude != "" {
							fmt.Fprintf(out, ", M%s", im.Magnitude)
						}
						fmt.Fprint(out, ")")
					}
					fmt.Fprintln(out)
				}
			}
			fmt.Fprintf(out, "\nPopulation context: %s\n", domain.DescribeEnrichment(enrichment))
			return nil
		},
	}
	cmd.Flags().StringVar(&persona, "persona", "", "Audience the report is written for (default from PERSONA)")
	return cmd
}
