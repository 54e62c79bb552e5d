package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/devbush/stockdesk/internal/domain"
	"github.com/devbush/stockdesk/internal/ports"
)

// Resolver defaults.
const (
	DefaultResolverSize = 1024
	// A code missing right after a full load is reported as not found
	// instead of triggering another load.
	resolverReloadAfter = 30 * time.Second
)

// ProductResolver maps product codes to products through an LRU cache filled
// from the full product list. It is safe for concurrent use.
type ProductResolver struct {
	store ports.ProductStore
	cache *lru.Cache[string, *domain.Product]
	group singleflight.Group
	now   func() time.Time

	mu       sync.Mutex
	size     int
	loadedAt time.Time
}

// NewProductResolver creates a resolver sized for size products. The cache
// grows when a full load returns a bigger catalog.
func NewProductResolver(store ports.ProductStore, size int) (*ProductResolver, error) {
	if size < 1 {
		size = DefaultResolverSize
	}
	cache, err := lru.New[string, *domain.Product](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create product cache: %w", err)
	}
	return &ProductResolver{store: store, cache: cache, size: size, now: time.Now}, nil
}

// Resolve returns the product with the given code, case-insensitively.
func (r *ProductResolver) Resolve(ctx context.Context, code string) (*domain.Product, error) {
	key := strings.ToLower(strings.TrimSpace(code))
	if key == "" {
		return nil, fmt.Errorf("%w: empty product code", domain.ErrInvalidInput)
	}
	if p, ok := r.cache.Get(key); ok {
		return p, nil
	}

	if !r.fresh() {
		_, err, _ := r.group.Do("load", func() (any, error) {
			if r.fresh() {
				return nil, nil
			}
			return nil, r.load(ctx)
		})
		if err != nil {
			return nil, err
		}
	}

	if p, ok := r.cache.Get(key); ok {
		return p, nil
	}
	return nil, fmt.Errorf("product %s: %w", code, domain.ErrNotFound)
}

func (r *ProductResolver) load(ctx context.Context) error {
	products, err := r.store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	// A miss after a load means not found, so the whole catalog must fit.
	r.mu.Lock()
	if len(products) > r.size {
		r.cache.Resize(len(products))
		r.size = len(products)
	}
	r.mu.Unlock()

	for _, p := range products {
		r.cache.Add(strings.ToLower(p.Code), p)
	}

	r.mu.Lock()
	r.loadedAt = r.now()
	r.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Int("products", len(products)).Msg("product resolver loaded")
	return nil
}

func (r *ProductResolver) fresh() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.loadedAt.IsZero() && r.now().Sub(r.loadedAt) < resolverReloadAfter
}

// Purge drops every cached product.
func (r *ProductResolver) Purge() {
	r.cache.Purge()
	r.mu.Lock()
	r.loadedAt = time.Time{}
	r.mu.Unlock()
}

// Len returns the number of cached products.
func (r *ProductResolver) Len() int {
	return r.cache.Len()
}
