// Package catalog is a product catalog client whose lookups are memoized by
// an OperationCache.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	cache "github.com/krisalay/operation-cache"
)

// Operation names under which catalog lookups are cached. They share the
// "products_" prefix so one Clear drops them all.
const (
	OpGetProduct     = "products_get"
	OpSearchProducts = "products_search"

	InvalidatePrefix = "products_"
)

// ErrNotFound is returned for an unknown style number.
var ErrNotFound = errors.New("catalog: product not found")

type Product struct {
	Style    string   `json:"style"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Category string   `json:"category"`
	Colors   []string `json:"colors"`
	Price    float64  `json:"price"`
}

// SearchQuery filters products. Empty fields match everything.
type SearchQuery struct {
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
	Text     string `json:"text,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Source is the slow upstream the cache sits in front of.
type Source interface {
	GetProduct(ctx context.Context, style string) (Product, error)
	SearchProducts(ctx context.Context, q SearchQuery) ([]Product, error)
	UpdateProduct(ctx context.Context, p Product) error
}

// StaticSource serves products from memory after an artificial delay.
type StaticSource struct {
	Latency time.Duration

	mu       sync.RWMutex
	products map[string]Product
	calls    map[string]int
}

func NewStaticSource(latency time.Duration, products ...Product) *StaticSource {
	s := &StaticSource{
		Latency:  latency,
		products: make(map[string]Product, len(products)),
		calls:    make(map[string]int),
	}
	for _, p := range products {
		s.products[p.Style] = p
	}
	return s
}

// Calls returns how many times method reached the source.
func (s *StaticSource) Calls(method string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[method]
}

func (s *StaticSource) wait(ctx context.Context, method string) error {
	s.mu.Lock()
	s.calls[method]++
	s.mu.Unlock()

	if s.Latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *StaticSource) GetProduct(ctx context.Context, style string) (Product, error) {
	if err := s.wait(ctx, "GetProduct"); err != nil {
		return Product{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[style]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, style)
	}
	return p, nil
}

func (s *StaticSource) SearchProducts(ctx context.Context, q SearchQuery) ([]Product, error) {
	if err := s.wait(ctx, "SearchProducts"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Product{}
	text := strings.ToLower(q.Text)
	for _, p := range s.products {
		if q.Brand != "" && !strings.EqualFold(p.Brand, q.Brand) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(p.Name), text) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Style < out[j].Style })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *StaticSource) UpdateProduct(ctx context.Context, p Product) error {
	if err := s.wait(ctx, "UpdateProduct"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.Style]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p.Style)
	}
	s.products[p.Style] = p
	return nil
}

// SampleProducts is a small fixed catalog used by the demo and benchmark.
func SampleProducts() []Product {
	return []Product{
		{Style: "PC61", Name: "Essential Tee", Brand: "Port & Company", Category: "T-Shirts", Colors: []string{"Black", "White", "Navy"}, Price: 4.18},
		{Style: "PC54", Name: "Core Cotton Tee", Brand: "Port & Company", Category: "T-Shirts", Colors: []string{"Athletic Heather", "Red"}, Price: 3.58},
		{Style: "PC78H", Name: "Core Fleece Pullover Hooded Sweatshirt", Brand: "Port & Company", Category: "Sweatshirts", Colors: []string{"Charcoal", "Navy"}, Price: 14.98},
		{Style: "K500", Name: "Silk Touch Polo", Brand: "Port Authority", Category: "Polos", Colors: []string{"White", "Royal"}, Price: 13.98},
		{Style: "ST350", Name: "PosiCharge Competitor Tee", Brand: "Sport-Tek", Category: "T-Shirts", Colors: []string{"True Royal", "Black"}, Price: 5.98},
		{Style: "DT6000", Name: "Very Important Tee", Brand: "District", Category: "T-Shirts", Colors: []string{"Heathered Charcoal"}, Price: 5.48},
	}
}

/*
Client fronts a Source with an OperationCache.

Lookups are memoized per style or query; a successful UpdateProduct clears
every products_* entry so the next read sees fresh data.
*/
type Client struct {
	source Source
	cache  *cache.OperationCache

	getProduct     func(context.Context, string) (Product, error)
	searchProducts func(context.Context, SearchQuery) ([]Product, error)
}

// NewClient wraps source. getTTL and searchTTL apply to the two lookups; a
// non-positive value uses the cache's default TTL.
func NewClient(c *cache.OperationCache, source Source, getTTL, searchTTL time.Duration) *Client {
	return &Client{
		source:         source,
		cache:          c,
		getProduct:     cache.Cacheable(c, OpGetProduct, getTTL, source.GetProduct),
		searchProducts: cache.Cacheable(c, OpSearchProducts, searchTTL, source.SearchProducts),
	}
}

func (c *Client) GetProduct(ctx context.Context, style string) (Product, error) {
	p, err := c.getProduct(ctx, style)
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", style, err)
	}
	return p, nil
}

func (c *Client) SearchProducts(ctx context.Context, q SearchQuery) ([]Product, error) {
	ps, err := c.searchProducts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return ps, nil
}

// UpdateProduct writes p upstream and then invalidates the cached lookups.
// It returns the number of cache entries dropped.
func (c *Client) UpdateProduct(ctx context.Context, p Product) (int, error) {
	if err := c.source.UpdateProduct(ctx, p); err != nil {
		return 0, fmt.Errorf("update product %s: %w", p.Style, err)
	}
	return c.cache.Clear(InvalidatePrefix), nil
}
