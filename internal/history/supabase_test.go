package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupabaseStoreUnconfiguredWithoutCredentials(t *testing.T) {
	store, err := NewSupabaseStore("", "")
	require.NoError(t, err)
	assert.False(t, store.Configured())
}

func TestUnconfiguredSupabaseStoreInsertsAreNoOps(t *testing.T) {
	store, err := NewSupabaseStore("", "")
	require.NoError(t, err)

	assert.NoError(t, store.InsertHardware(context.Background(), "GPU_RTX4090", 1000, 1600, 1600, 3))
	assert.NoError(t, store.InsertRental(context.Background(), "RENTAL_H100_80GB", 1000, 2.5, 2.0, 3.0, 5, 2.2, 2.8))
}

func TestUnconfiguredSupabaseStoreRangeQueriesReturnErrUnconfigured(t *testing.T) {
	store, err := NewSupabaseStore("", "")
	require.NoError(t, err)

	_, err = store.RangeHardware(context.Background(), RangeQuery{})
	assert.IsType(t, ErrUnconfigured{}, err)

	_, err = store.RangeRental(context.Background(), RangeQuery{})
	assert.IsType(t, ErrUnconfigured{}, err)

	_, err = store.HardwareStats(context.Background())
	assert.IsType(t, ErrUnconfigured{}, err)

	_, err = store.RentalStats(context.Background())
	assert.IsType(t, ErrUnconfigured{}, err)
}
