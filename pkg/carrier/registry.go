package carrier

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry holds the registered carrier variants, keyed by delivery type.
// It is the dispatch mechanism the shipping service routes through.
type Registry struct {
	variants map[string]Carrier
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		variants: make(map[string]Carrier),
	}
}

// Register adds a variant under its delivery-type tag.
func (r *Registry) Register(c Carrier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[c.DeliveryType()] = c
}

// Get returns the variant for a delivery-type tag.
func (r *Registry) Get(deliveryType string) (Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.variants[deliveryType]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, deliveryType)
}

// All returns all registered variants.
func (r *Registry) All() []Carrier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Carrier, 0, len(r.variants))
	for _, c := range r.variants {
		result = append(result, c)
	}
	return result
}

// Tags returns the delivery-type tags of all registered variants.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.variants))
	for tag := range r.variants {
		tags = append(tags, tag)
	}
	return tags
}

// Count returns the number of registered variants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.variants)
}

// RateAll rates an order against every registered variant in parallel.
// Errors from individual variants are collected but don't fail the call.
func (r *Registry) RateAll(ctx context.Context, req *RateRequest) (map[string]*RateResult, []error) {
	variants := r.All()
	if len(variants) == 0 {
		return nil, []error{ErrVariantNotFound}
	}

	results := make(map[string]*RateResult, len(variants))
	errs := make([]error, 0)
	mu := &sync.Mutex{}

	g, ctx := errgroup.WithContext(ctx)

	for _, c := range variants {
		g.Go(func() error {
			res, err := c.RateShipment(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
				return nil // other variants still get a chance
			}
			results[c.DeliveryType()] = res
			return nil
		})
	}

	g.Wait()
	return results, errs
}
