package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Print the skills offered as filters",
	Run: func(cmd *cobra.Command, _ []string) {
		b := setup()
		for _, skill := range b.store.Catalog() {
			fmt.Fprintln(cmd.OutOrStdout(), skill)
		}
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)
}
