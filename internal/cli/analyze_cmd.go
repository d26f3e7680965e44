package cli

import (
	"fmt"
	"os"

	"github.com/alexanderramin/dermaloop/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *App) *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse a selfie, or show the latest analysis",
		Long: `Sends a selfie to the vision model and stores the result.
Without --image the latest stored analysis is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if imagePath == "" {
				fmt.Fprint(out, formatter.FormatAnalysis(a.Session.Analysis()))
				return nil
			}

			read := a.ReadImage
			if read == nil {
				read = os.ReadFile
			}
			image, err := read(imagePath)
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Analysing your skin...")
			analysis, err := a.Session.Analyze(cmd.Context(), image)
			stop()
			if err != nil {
				return err
			}

			fmt.Fprint(out, formatter.FormatAnalysis(analysis))
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to a JPEG or PNG selfie")

	return cmd
}
