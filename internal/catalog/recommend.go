package catalog

import (
	"context"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"go.uber.org/zap"
)

// Recommend searches the catalog for each step of r in bucket order and
// keeps the first product found per step, up to limit distinct products.
// Search failures skip the step; the routine is never blocked on the catalog.
func Recommend(ctx context.Context, s Searcher, r *domain.Routine, limit int, log *zap.Logger) []domain.Product {
	if s == nil || r == nil || limit <= 0 {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	var out []domain.Product
	seen := make(map[string]bool)
	for _, b := range domain.Buckets {
		for _, step := range r.Steps(b) {
			if len(out) == limit || ctx.Err() != nil {
				return out
			}
			products, err := s.Search(ctx, step.Name)
			if err != nil {
				log.Warn("product search failed", zap.String("step", step.Name), zap.Error(err))
				continue
			}
			for _, p := range products {
				key := strings.ToLower(p.Name)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, p)
				break
			}
		}
	}
	return out
}
