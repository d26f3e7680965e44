package formatter

import (
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// maxIngredientsShown bounds the ingredient column.
const maxIngredientsShown = 3

// FormatProducts renders catalog products as a table.
func FormatProducts(products []domain.Product) string {
	if len(products) == 0 {
		return Dim("No products found.") + "\n"
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		ingredients := p.Ingredients
		more := ""
		if len(ingredients) > maxIngredientsShown {
			ingredients = ingredients[:maxIngredientsShown]
			more = ", …"
		}
		rows = append(rows, []string{p.Name, p.Brand, strings.Join(ingredients, ", ") + more})
	}
	return RenderTable([]string{"PRODUCT", "BRAND", "KEY INGREDIENTS"}, rows)
}
