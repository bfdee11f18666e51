// internal/engine/ranking/priority_test.go
package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPriorityOrder(t *testing.T) {
	order := DefaultPriorityOrder()
	assert.Equal(t, []Factor{FactorAvailability, FactorDistance, FactorScore}, order.Factors())
}

func TestParsePriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		expected []Factor
		wantErr  string
	}{
		{
			name:     "empty falls back to default",
			raw:      nil,
			expected: []Factor{FactorAvailability, FactorDistance, FactorScore},
		},
		{
			name:     "single factor",
			raw:      []string{"distance"},
			expected: []Factor{FactorDistance},
		},
		{
			name:     "custom full order",
			raw:      []string{"score", "availability", "distance"},
			expected: []Factor{FactorScore, FactorAvailability, FactorDistance},
		},
		{
			name:    "unknown factor rejected",
			raw:     []string{"availability", "vibes"},
			wantErr: "unknown priority factor",
		},
		{
			name:    "duplicate rejected",
			raw:     []string{"distance", "distance"},
			wantErr: "duplicate priority factor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := ParsePriorityOrder(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, order.Factors())
		})
	}
}

func TestPriorityOrder_InsertSwapsOnDuplicate(t *testing.T) {
	order := DefaultPriorityOrder() // [availability, distance, score]

	// Re-inserting distance at the front swaps it with availability
	// instead of duplicating it.
	require.NoError(t, order.Insert(FactorDistance, 0))
	assert.Equal(t, []Factor{FactorDistance, FactorAvailability, FactorScore}, order.Factors())
	assert.Equal(t, 3, order.Len())
}

func TestPriorityOrder_InsertNewFactor(t *testing.T) {
	order, err := NewPriorityOrder(FactorScore)
	require.NoError(t, err)

	require.NoError(t, order.Insert(FactorAvailability, 0))
	assert.Equal(t, []Factor{FactorAvailability, FactorScore}, order.Factors())

	require.NoError(t, order.Insert(FactorDistance, 1))
	assert.Equal(t, []Factor{FactorAvailability, FactorDistance, FactorScore}, order.Factors())
}

func TestPriorityOrder_InsertClampsPosition(t *testing.T) {
	order, err := NewPriorityOrder(FactorAvailability)
	require.NoError(t, err)

	require.NoError(t, order.Insert(FactorScore, 99))
	assert.Equal(t, []Factor{FactorAvailability, FactorScore}, order.Factors())

	require.NoError(t, order.Insert(FactorDistance, -5))
	assert.Equal(t, []Factor{FactorDistance, FactorAvailability, FactorScore}, order.Factors())
}

func TestPriorityOrder_InsertRejectsUnknown(t *testing.T) {
	order := DefaultPriorityOrder()
	assert.Error(t, order.Insert(Factor("vibes"), 0))
}

func TestPriorityOrder_Remove(t *testing.T) {
	order := DefaultPriorityOrder()

	require.NoError(t, order.Remove(FactorDistance))
	assert.Equal(t, []Factor{FactorAvailability, FactorScore}, order.Factors())

	require.NoError(t, order.Remove(FactorAvailability))
	assert.Equal(t, []Factor{FactorScore}, order.Factors())

	// The last factor can never be removed.
	err := order.Remove(FactorScore)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below one factor")
	assert.Equal(t, 1, order.Len())
}

func TestPriorityOrder_RemoveMissingFactor(t *testing.T) {
	order, err := NewPriorityOrder(FactorAvailability, FactorScore)
	require.NoError(t, err)

	assert.Error(t, order.Remove(FactorDistance))
	assert.Equal(t, 2, order.Len())
}

func TestPriorityOrder_FactorsReturnsCopy(t *testing.T) {
	order := DefaultPriorityOrder()
	factors := order.Factors()
	factors[0] = FactorScore

	assert.Equal(t, []Factor{FactorAvailability, FactorDistance, FactorScore}, order.Factors())
}
