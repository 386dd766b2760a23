package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	registry.Register(models.KindEvent, NewMemoryProvider([]models.Item{
		{ID: "evt-1", Name: "Festival", Kind: models.KindEvent, UnitPrice: 5000, TotalCapacity: 10},
	}))

	item, err := registry.Resolve(context.Background(), models.ItemRef{Kind: models.KindEvent, ID: "evt-1"})
	require.NoError(t, err)
	require.Equal(t, "Festival", item.Name)

	_, err = registry.Resolve(context.Background(), models.ItemRef{Kind: models.KindEvent, ID: "missing"})
	require.ErrorIs(t, err, ErrItemNotFound)

	// unknown kind resolves like an unknown id, not a panic
	_, err = registry.Resolve(context.Background(), models.ItemRef{Kind: "hotel", ID: "evt-1"})
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestMemoryProviderReturnsCopies(t *testing.T) {
	provider := NewMemoryProvider([]models.Item{
		{ID: "evt-1", Name: "Festival", Kind: models.KindEvent, UnitPrice: 5000, TotalCapacity: 10},
	})

	first, err := provider.GetItem(context.Background(), "evt-1")
	require.NoError(t, err)
	first.Name = "mutated"

	second, err := provider.GetItem(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Equal(t, "Festival", second.Name)
}
