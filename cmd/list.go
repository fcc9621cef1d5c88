package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/filtering"
	"github.com/spigell/laborconnect/internal/laborer"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print laborers matching the search text and filters",
	Run: func(cmd *cobra.Command, _ []string) {
		list(cmd)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	addFilterFlags(listCmd)
	listCmd.Flags().Bool("dump", false, "also write the result as JSON to a temporary file")
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("query", "q", "", "search text matched against names and skills")
	cmd.Flags().Float64("max-rate", 0, "maximum hourly rate (default from filters.max-rate)")
	cmd.Flags().Float64("min-rating", 0, "minimum rating (default from filters.min-rating)")
	cmd.Flags().StringSliceP("skill", "s", nil, "only laborers with any of these skills")
}

// searchFromFlags overrides the configured filters with flags that were set.
func searchFromFlags(cmd *cobra.Command, defaults filtering.SearchFilters) (string, filtering.SearchFilters) {
	filters := defaults
	flags := cmd.Flags()

	query, _ := flags.GetString("query")
	if flags.Changed("max-rate") {
		filters.MaxRate, _ = flags.GetFloat64("max-rate")
	}
	if flags.Changed("min-rating") {
		filters.MinRating, _ = flags.GetFloat64("min-rating")
	}
	if flags.Changed("skill") {
		filters.Skills, _ = flags.GetStringSlice("skill")
	}
	return query, filters
}

func list(cmd *cobra.Command) {
	ctx := context.Background()
	b := setup()

	query, filters := searchFromFlags(cmd, b.config.Filters)
	steps := filtering.Steps(query, filters)
	for _, status := range filtering.Describe(steps) {
		b.logger.Debug("filter", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.Any("details", status.Details))
	}

	filtered, _ := filtering.Run(steps, mustLaborers(ctx, b), b.logger)
	if filtered.Len() == 0 {
		b.logger.Info("no laborers found", zap.String("hint", "try different keywords or adjust filters"))
		return
	}

	printLaborers(cmd.OutOrStdout(), filtered, "")

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		filename, err := filtered.DumpToTmpFile()
		if err != nil {
			b.logger.Fatal("dump results to file", zap.Error(err))
		}
		b.logger.Info("dumping result to file", zap.String("filename", filename))
	}
}

// printLaborers writes one row per laborer, marking selectedID with '*'.
func printLaborers(w io.Writer, laborers *laborer.Laborers, selectedID string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tRATE\tRATING\tDISTANCE\tSTATUS\tSKILLS")
	for _, l := range laborers.Items {
		mark := ""
		if selectedID != "" && l.ID == selectedID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f (%d)\t%.1f mi\t%s\t%s\n",
			mark, l.ID, l.Name, l.RateLabel(), l.Rating, l.Reviews, l.Distance, l.Availability, strings.Join(l.Skills, ", "),
		)
	}
	tw.Flush()
}
