package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newProductsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Search the product catalog",
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Find products by name or ingredient",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Catalog == nil {
				return errors.New("product catalog is not configured")
			}
			products, err := a.Catalog.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProducts(products))
			return nil
		},
	}

	cmd.AddCommand(search)
	return cmd
}
