// Package catalog resolves reservation item references against per-kind
// item providers (events, destinations).
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

var ErrItemNotFound = errors.New("item not found")

// Provider exposes the bookable items of one kind.
type Provider interface {
	GetItem(ctx context.Context, id string) (*models.Item, error)
}

// Registry maps item kinds to their providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[models.ItemKind]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[models.ItemKind]Provider)}
}

func (r *Registry) Register(kind models.ItemKind, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[kind] = p
}

// Resolve looks an item reference up through the provider registered for
// its kind. An unknown kind resolves to ErrItemNotFound like an unknown id.
func (r *Registry) Resolve(ctx context.Context, ref models.ItemRef) (*models.Item, error) {
	r.mu.RLock()
	p, ok := r.providers[ref.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no provider for kind %q", ErrItemNotFound, ref.Kind)
	}
	return p.GetItem(ctx, ref.ID)
}

// MemoryProvider serves items loaded from configuration.
type MemoryProvider struct {
	mu    sync.RWMutex
	items map[string]models.Item
}

func NewMemoryProvider(items []models.Item) *MemoryProvider {
	p := &MemoryProvider{items: make(map[string]models.Item, len(items))}
	for _, it := range items {
		p.items[it.ID] = it
	}
	return p
}

func (p *MemoryProvider) GetItem(_ context.Context, id string) (*models.Item, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	it, ok := p.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	cp := it
	return &cp, nil
}

// Items returns all items of the provider, for startup seeding.
func (p *MemoryProvider) Items() []models.Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Item, 0, len(p.items))
	for _, it := range p.items {
		out = append(out, it)
	}
	return out
}
