package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/filtering"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print filtered laborers grouped by skill as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		b := setup()

		query, filters := searchFromFlags(cmd, b.config.Filters)
		filtered := filtering.Apply(mustLaborers(context.Background(), b), query, filters)

		pretty, err := json.MarshalIndent(filtered.ReportBySkill(), "", "  ")
		if err != nil {
			b.logger.Fatal("building report", zap.Error(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
		b.logger.Info("report ready", zap.Int("laborers count", filtered.Len()))
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addFilterFlags(reportCmd)
}
