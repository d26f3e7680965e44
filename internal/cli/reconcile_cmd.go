package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/dermaloop/internal/cli/formatter"
	"github.com/alexanderramin/dermaloop/internal/reconcile"
	"github.com/alexanderramin/dermaloop/internal/rules"
	"github.com/spf13/cobra"
)

func newReconcileCmd(a *App) *cobra.Command {
	var (
		file     string
		skinAge  int
		age      int
		asJSON   bool
		skipRule bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Turn a saved model reply into a routine, offline",
		Long: `Runs a raw model reply through the decoding fallbacks and the local
safety rules without contacting the model. Use --file - to read stdin.
Nothing is saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			rec := a.Reconciler
			if rec == nil {
				rec = reconcile.New(nil)
			}
			routine, tier, err := rec.Reconcile(cmd.Context(), raw, nil)
			if err != nil {
				return err
			}

			var report rules.Report
			if !skipRule {
				engine := a.Rules
				if engine == nil {
					engine = rules.NewEngine(rules.DefaultConfig())
				}
				var sig rules.Signal
				if cmd.Flags().Changed("skin-age") {
					sig.SkinAge = &skinAge
				}
				if cmd.Flags().Changed("age") {
					sig.ChronologicalAge = &age
				}
				routine, report = engine.ApplyWithReport(routine, sig)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(routine)
			}

			fmt.Fprintf(out, "%s %s\n", formatter.Bold("Decoded via"), tier)
			for _, d := range report.Dropped {
				fmt.Fprintf(out, "%s %s: %s (%s)\n", formatter.Red("✗"), d.Bucket, d.Name, d.Reason)
			}
			if report.InjectedRetinoid {
				fmt.Fprintf(out, "%s Evening: %s added\n", formatter.Green("+"), rules.RetinoidStep().Name)
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.FormatRoutine(routine, a.now()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File holding the raw reply (- for stdin)")
	cmd.Flags().IntVar(&skinAge, "skin-age", 0, "Estimated skin age for the retinoid rule")
	cmd.Flags().IntVar(&age, "age", 0, "Chronological age (default from DERMALOOP_RULES_DEFAULT_AGE)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the routine as JSON")
	cmd.Flags().BoolVar(&skipRule, "no-rules", false, "Skip the local safety rules")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading reply: %w", err)
	}
	return string(data), nil
}
