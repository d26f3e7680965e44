// Package catalog searches a public cosmetics product database and picks
// products to recommend alongside a routine.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when the catalog cannot be reached or answers
// with a non-success status.
var ErrUnavailable = errors.New("product catalog unavailable")

// Searcher finds products by name or free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

// Config holds catalog client settings.
type Config struct {
	BaseURL   string
	PageSize  int
	CacheTTL  time.Duration
	TimeoutMs int
}

// DefaultConfig returns settings for the public Open Beauty Facts instance.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://world.openbeautyfacts.org",
		PageSize:  5,
		CacheTTL:  10 * time.Minute,
		TimeoutMs: 10000,
	}
}

// LoadConfig reads catalog settings from the environment.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("DERMALOOP_CATALOG_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DERMALOOP_CATALOG_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("DERMALOOP_CATALOG_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("DERMALOOP_CATALOG_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	return cfg
}

// Client queries the catalog search endpoint through a SearchCache.
type Client struct {
	cfg   Config
	http  *http.Client
	cache *SearchCache
	log   *zap.Logger
}

// NewClient creates a Client. cache may be nil to disable caching.
func NewClient(cfg Config, cache *SearchCache, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		cache: cache,
		log:   log.Named("catalog"),
	}
}

// Search returns up to PageSize products matching query. Blank queries
// return no products without a request.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if c.cache != nil {
		if products, ok := c.cache.Get(query); ok {
			return products, nil
		}
	}

	products, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(query, products)
	}
	c.log.Debug("catalog search", zap.String("query", query), zap.Int("results", len(products)))
	return products, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]domain.Product, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(c.cfg.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/cgi/search.pl?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed response", ErrUnavailable)
	}
	return parseProducts(body, c.cfg.PageSize), nil
}

// parseProducts reads the "products" array. Entries without a name are
// skipped.
func parseProducts(body []byte, limit int) []domain.Product {
	var out []domain.Product
	gjson.GetBytes(body, "products").ForEach(func(_, p gjson.Result) bool {
		name := strings.TrimSpace(domain.CoalesceStr(
			p.Get("product_name").String(),
			p.Get("product_name_en").String(),
			p.Get("generic_name").String(),
		))
		if name == "" {
			return true
		}
		out = append(out, domain.Product{
			Name:           name,
			Brand:          firstBrand(p.Get("brands").String()),
			ImageURL:       domain.CoalesceStr(p.Get("image_front_url").String(), p.Get("image_url").String()),
			DestinationURL: p.Get("url").String(),
			Ingredients:    ingredientList(p),
		})
		return limit <= 0 || len(out) < limit
	})
	return out
}

func firstBrand(brands string) string {
	first, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(first)
}

// ingredientList prefers the structured ingredient array and falls back to
// splitting the free-text list.
func ingredientList(p gjson.Result) []string {
	var out []string
	p.Get("ingredients").ForEach(func(_, ing gjson.Result) bool {
		if text := strings.TrimSpace(ing.Get("text").String()); text != "" {
			out = append(out, text)
		}
		return true
	})
	if len(out) > 0 {
		return out
	}
	for _, part := range strings.Split(p.Get("ingredients_text").String(), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
