package capacity

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccountant_ReserveCommitRelease(t *testing.T) {
	a := NewAccountant()
	a.Track("item1", 10, 10)

	require.NoError(t, a.TryReserve("item1", 3))
	remaining, err := a.Remaining("item1")
	require.NoError(t, err)
	require.Equal(t, 7, remaining)

	require.NoError(t, a.Commit("item1", 3))
	committed, err := a.Committed("item1")
	require.NoError(t, err)
	require.Equal(t, 3, committed)

	// committing again without a hold must be refused
	err = a.Commit("item1", 3)
	require.ErrorIs(t, err, ErrViolation)

	require.NoError(t, a.Release("item1", 3, true))
	remaining, err = a.Remaining("item1")
	require.NoError(t, err)
	require.Equal(t, 10, remaining)
}

func TestAccountant_InsufficientCapacity(t *testing.T) {
	a := NewAccountant()
	a.Track("item1", 2, 2)

	require.NoError(t, a.TryReserve("item1", 2))
	err := a.TryReserve("item1", 1)
	require.ErrorIs(t, err, ErrInsufficientCapacity)
}

func TestAccountant_TrackSeedsPreSoldUnits(t *testing.T) {
	a := NewAccountant()
	a.Track("item1", 10, 4)

	remaining, err := a.Remaining("item1")
	require.NoError(t, err)
	require.Equal(t, 4, remaining)

	committed, err := a.Committed("item1")
	require.NoError(t, err)
	require.Equal(t, 6, committed)

	// re-tracking is a no-op
	a.Track("item1", 100, 100)
	remaining, err = a.Remaining("item1")
	require.NoError(t, err)
	require.Equal(t, 4, remaining)
}

func TestAccountant_UnknownItem(t *testing.T) {
	a := NewAccountant()
	err := a.TryReserve("missing", 1)
	require.ErrorIs(t, err, ErrUnknownItem)
}

func TestAccountant_ReleaseMoreThanHeld(t *testing.T) {
	a := NewAccountant()
	a.Track("item1", 5, 5)
	require.NoError(t, a.TryReserve("item1", 2))

	err := a.Release("item1", 3, false)
	require.ErrorIs(t, err, ErrViolation)
}

// With capacity C and many concurrent reservation attempts, at most C
// units are ever taken.
func TestAccountant_ConcurrentReserve(t *testing.T) {
	const total = 10
	const attempts = 100

	a := NewAccountant()
	a.Track("item1", total, total)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.TryReserve("item1", 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientCapacity) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, total, succeeded)
	remaining, err := a.Remaining("item1")
	require.NoError(t, err)
	require.Equal(t, 0, remaining)
}
