package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GBOHOUILI/even-travel-backend/internal/domain"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

func testReservation(id string) *models.Reservation {
	return &models.Reservation{
		ID:            id,
		Item:          models.ItemRef{Kind: models.KindEvent, ID: "evt-1"},
		Count:         1,
		TotalDue:      5000,
		Plan:          models.PlanSingle,
		Status:        models.StatusPending,
		ProcessedTxns: make(map[string]bool),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestMemoryReservationStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReservationStore()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrReservationNotFound)

	res := testReservation("res-1")
	require.NoError(t, store.Save(ctx, res))

	got, err := store.Get(ctx, "res-1")
	require.NoError(t, err)
	require.Equal(t, res.ID, got.ID)

	// stored state must not alias the caller's copy
	got.ProcessedTxns["txn-1"] = true
	again, err := store.Get(ctx, "res-1")
	require.NoError(t, err)
	require.Empty(t, again.ProcessedTxns)

	require.NoError(t, store.Delete(ctx, "res-1"))
	require.ErrorIs(t, store.Delete(ctx, "res-1"), domain.ErrReservationNotFound)
}

func TestMemoryReservationStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReservationStore()

	older := testReservation("res-old")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := testReservation("res-new")

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "res-new", list[0].ID)
}

func TestMemoryPaymentStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPaymentStore()

	require.NoError(t, store.Append(ctx, &models.Payment{ID: "pay-1", Amount: 5000}))
	require.NoError(t, store.Append(ctx, &models.Payment{ID: "pay-2", Amount: 2500}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int64(5000), list[0].Amount)
}
