package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

// TestTierValidate tests tier bound validation
func TestTierValidate(t *testing.T) {
	tests := []struct {
		name        string
		tier        Tier
		expectError error
	}{
		{
			name: "Valid bounded tier",
			tier: Tier{Min: 0, Max: floatPtr(1), PricePerUnit: 10000},
		},
		{
			name: "Valid unbounded tier",
			tier: Tier{Min: 3, PricePerUnit: 8000},
		},
		{
			name: "Valid flat price tier",
			tier: Tier{Min: 0, Max: floatPtr(5), FlatPrice: 25000},
		},
		{
			name:        "Minimum equals maximum",
			tier:        Tier{Min: 2, Max: floatPtr(2), PricePerUnit: 9000},
			expectError: ErrTierBounds,
		},
		{
			name:        "Minimum above maximum",
			tier:        Tier{Min: 3, Max: floatPtr(1), PricePerUnit: 9000},
			expectError: ErrTierBounds,
		},
		{
			name:        "Negative minimum",
			tier:        Tier{Min: -1, Max: floatPtr(1), PricePerUnit: 9000},
			expectError: ErrTierBounds,
		},
		{
			name:        "Negative price per unit",
			tier:        Tier{Min: 0, Max: floatPtr(1), PricePerUnit: -10},
			expectError: ErrNegativePrice,
		},
		{
			name:        "Negative flat price",
			tier:        Tier{Min: 0, Max: floatPtr(1), FlatPrice: -10},
			expectError: ErrNegativePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tier.Validate()
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestResolveTier tests in-order tier selection
func TestResolveTier(t *testing.T) {
	tiers := []Tier{
		{Min: 0, Max: floatPtr(1), PricePerUnit: 10000},
		{Min: 1, Max: floatPtr(3), PricePerUnit: 9000},
		{Min: 3, PricePerUnit: 8000},
	}

	tier, err := ResolveTier(tiers, 0.5)
	require.NoError(t, err)
	assert.Equal(t, float64(10000), tier.PricePerUnit)

	tier, err = ResolveTier(tiers, 2)
	require.NoError(t, err)
	assert.Equal(t, float64(9000), tier.PricePerUnit)

	tier, err = ResolveTier(tiers, 5)
	require.NoError(t, err)
	assert.Equal(t, float64(8000), tier.PricePerUnit)
}

// TestResolveTierBoundary tests that a quantity sitting exactly on a
// shared boundary resolves to the lower band
func TestResolveTierBoundary(t *testing.T) {
	tiers := []Tier{
		{Min: 0, Max: floatPtr(1), PricePerUnit: 10000},
		{Min: 1, Max: floatPtr(3), PricePerUnit: 9000},
		{Min: 3, PricePerUnit: 8000},
	}

	tier, err := ResolveTier(tiers, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(10000), tier.PricePerUnit)

	tier, err = ResolveTier(tiers, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(9000), tier.PricePerUnit)
}

// TestResolveTierExtrapolation tests the last-tier fallback when a
// quantity exceeds every bounded band
func TestResolveTierExtrapolation(t *testing.T) {
	tiers := []Tier{
		{Min: 0, Max: floatPtr(1), PricePerUnit: 10000},
		{Min: 1, Max: floatPtr(3), PricePerUnit: 9000},
	}

	tier, err := ResolveTier(tiers, 50)
	require.NoError(t, err)
	assert.Equal(t, float64(9000), tier.PricePerUnit)
}

// TestResolveTierEmpty tests that an empty list fails resolution
func TestResolveTierEmpty(t *testing.T) {
	_, err := ResolveTier(nil, 2)
	assert.ErrorIs(t, err, ErrNoTiers)

	_, err = ResolveTier([]Tier{}, 2)
	assert.ErrorIs(t, err, ErrNoTiers)
}

// TestResolveTierBelowAllBands tests a quantity under the lowest band
func TestResolveTierBelowAllBands(t *testing.T) {
	tiers := []Tier{
		{Min: 5, Max: floatPtr(10), PricePerUnit: 7000},
		{Min: 10, PricePerUnit: 6000},
	}

	// Nothing contains 2, so the last tier extrapolates.
	tier, err := ResolveTier(tiers, 2)
	require.NoError(t, err)
	assert.Equal(t, float64(6000), tier.PricePerUnit)
}

// TestTierOverlaps tests pairwise overlap detection
func TestTierOverlaps(t *testing.T) {
	tests := []struct {
		name    string
		a       Tier
		b       Tier
		overlap bool
	}{
		{
			name:    "Adjacent bands do not overlap",
			a:       Tier{Min: 0, Max: floatPtr(1)},
			b:       Tier{Min: 1, Max: floatPtr(3)},
			overlap: false,
		},
		{
			name:    "Disjoint bands do not overlap",
			a:       Tier{Min: 0, Max: floatPtr(1)},
			b:       Tier{Min: 5, Max: floatPtr(10)},
			overlap: false,
		},
		{
			name:    "Minimum inside the other band",
			a:       Tier{Min: 0, Max: floatPtr(2)},
			b:       Tier{Min: 1, Max: floatPtr(3)},
			overlap: true,
		},
		{
			name:    "Maximum inside the other band",
			a:       Tier{Min: 2, Max: floatPtr(4)},
			b:       Tier{Min: 1, Max: floatPtr(3)},
			overlap: true,
		},
		{
			name:    "Full enclosure",
			a:       Tier{Min: 0, Max: floatPtr(10)},
			b:       Tier{Min: 2, Max: floatPtr(3)},
			overlap: true,
		},
		{
			name:    "Unbounded band overlaps everything above its minimum",
			a:       Tier{Min: 3},
			b:       Tier{Min: 5, Max: floatPtr(10)},
			overlap: true,
		},
		{
			name:    "Unbounded band starts where bounded one ends",
			a:       Tier{Min: 0, Max: floatPtr(3)},
			b:       Tier{Min: 3},
			overlap: false,
		},
		{
			name:    "Two unbounded bands always overlap",
			a:       Tier{Min: 0},
			b:       Tier{Min: 100},
			overlap: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlap, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.overlap, tt.b.Overlaps(tt.a))
		})
	}
}

// TestCheckTierOverlap tests candidate validation against a tier list
func TestCheckTierOverlap(t *testing.T) {
	existing := []Tier{
		{Min: 0, Max: floatPtr(1), PricePerUnit: 10000},
		{Min: 1, Max: floatPtr(3), PricePerUnit: 9000},
	}

	err := CheckTierOverlap(existing, Tier{Min: 3, PricePerUnit: 8000})
	assert.NoError(t, err)

	err = CheckTierOverlap(existing, Tier{Min: 2, Max: floatPtr(5), PricePerUnit: 8500})
	assert.ErrorIs(t, err, ErrTierOverlap)

	err = CheckTierOverlap(existing, Tier{Min: 0.5, PricePerUnit: 8500})
	assert.ErrorIs(t, err, ErrTierOverlap)

	err = CheckTierOverlap(nil, Tier{Min: 0, PricePerUnit: 10000})
	assert.NoError(t, err)
}
