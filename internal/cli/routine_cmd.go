package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/dermaloop/internal/app"
	"github.com/alexanderramin/dermaloop/internal/cli/formatter"
	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/spf13/cobra"
)

func newRoutineCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routine",
		Short: "Show or regenerate your skincare routine",
	}

	cmd.AddCommand(
		newRoutineShowCmd(a),
		newRoutineGenerateCmd(a),
	)

	return cmd
}

func newRoutineShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current routine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRoutine(a.Session.Routine(), a.now()))
			return nil
		},
	}
}

func newRoutineGenerateCmd(a *App) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Ask the coach for a new routine",
		Long: `Builds a new routine from your latest analysis and what the coach
remembers, applies the local safety rules and replaces the current routine.
If the reply cannot be used, the current routine is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Building your routine...")
			res, err := a.Session.Regenerate(cmd.Context())
			stop()
			if err != nil {
				return explainRegenerateError(err)
			}

			fmt.Fprint(out, formatter.FormatChanges(res.Changes))
			if !quiet {
				fmt.Fprintln(out)
				fmt.Fprint(out, formatter.FormatRoutine(res.Routine, a.now()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print what changed")

	return cmd
}

func explainRegenerateError(err error) error {
	switch {
	case errors.Is(err, app.ErrBusy):
		return fmt.Errorf("a routine is already being generated; try again shortly")
	case errors.Is(err, domain.ErrDecoding):
		return fmt.Errorf("the coach's reply could not be turned into a routine; your current routine is unchanged: %w", err)
	default:
		return err
	}
}
