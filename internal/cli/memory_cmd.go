package cli

import (
	"fmt"

	"github.com/alexanderramin/dermaloop/internal/cli/formatter"
	"github.com/alexanderramin/dermaloop/internal/memory"
	"github.com/spf13/cobra"
)

func newMemoryCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect what the coach remembers",
	}

	var raw bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the accumulated memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.Session.Memory()
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), memory.Render(m))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMemory(m))
			return nil
		},
	}
	show.Flags().BoolVar(&raw, "prompt", false, "Show the memory as it is sent to the model")

	cmd.AddCommand(show)
	return cmd
}
