package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/ai"
	"github.com/spigell/laborconnect/internal/selection"
)

var matchCmd = &cobra.Command{
	Use:   "match <request>",
	Short: "Ask the AI advisor for the laborer that best fits a request",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		b := setup()
		controller := newController(b)
		defer controller.Close()

		query := strings.Join(args, " ")
		if err := smartMatch(context.Background(), cmd.OutOrStdout(), controller, query, b.logger); err != nil {
			b.logger.Fatal("smart match", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

// smartMatch runs one match and prints the outcome. Empty requests print the
// guidance and are not an error.
func smartMatch(ctx context.Context, w io.Writer, controller *selection.Controller, query string, logger *zap.Logger) error {
	outcome, err := controller.Match(ctx, query)
	switch {
	case errors.Is(err, ai.ErrEmptyQuery):
		fmt.Fprintln(w, ai.GuidanceMessage)
		return nil
	case err != nil:
		return err
	}

	switch outcome {
	case selection.OutcomeSelected:
		printSelection(ctx, w, controller)
	case selection.OutcomeUnknownID:
		fmt.Fprintln(w, "No matching laborer found.")
	default:
		logger.Info("smart match finished without a selection", zap.String("outcome", string(outcome)))
	}
	return nil
}

func printSelection(ctx context.Context, w io.Writer, controller *selection.Controller) {
	state := controller.Snapshot()
	l, ok := controller.Selected(ctx)
	if !ok {
		fmt.Fprintln(w, "Nothing selected.")
		return
	}

	fmt.Fprintf(w, "Selected: %s (%s), %s, rating %.1f, %s\n", l.Name, l.ID, l.RateLabel(), l.Rating, l.Availability)
	fmt.Fprintf(w, "Map center: %.4f, %.4f (zoom %d)\n", state.Center.Lat, state.Center.Lng, state.Zoom)
	if state.Insight != "" {
		fmt.Fprintf(w, "AI insight: %q\n", state.Insight)
	}
}
