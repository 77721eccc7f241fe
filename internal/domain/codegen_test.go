package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatRuleCode tests code formatting and zero padding
func TestFormatRuleCode(t *testing.T) {
	date := time.Date(2025, 3, 10, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "PR-20250310-001", FormatRuleCode(date, 1))
	assert.Equal(t, "PR-20250310-042", FormatRuleCode(date, 42))
	assert.Equal(t, "PR-20250310-999", FormatRuleCode(date, 999))

	// The sequence widens past three digits instead of wrapping.
	assert.Equal(t, "PR-20250310-1000", FormatRuleCode(date, 1000))
}

// TestParseRuleCode tests code parsing
func TestParseRuleCode(t *testing.T) {
	date, sequence, err := ParseRuleCode("PR-20250310-042")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, 42, sequence)

	date, sequence, err = ParseRuleCode("PR-20250310-1000")
	require.NoError(t, err)
	assert.Equal(t, 1000, sequence)
	assert.Equal(t, 2025, date.Year())
}

// TestParseRuleCodeInvalid tests malformed codes
func TestParseRuleCodeInvalid(t *testing.T) {
	invalid := []string{
		"",
		"PR-20250310",
		"PR-20250310-01",
		"PR-2025031-001",
		"XX-20250310-001",
		"PR-20251332-001", // impossible date
		"pr-20250310-001",
		"PR-20250310-001-extra",
	}

	for _, code := range invalid {
		_, _, err := ParseRuleCode(code)
		assert.ErrorIs(t, err, ErrInvalidRuleCode, "expected %q to be rejected", code)
	}
}

// TestNextRuleCode tests successor derivation
func TestNextRuleCode(t *testing.T) {
	today := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	code, err := NextRuleCode(today, "")
	require.NoError(t, err)
	assert.Equal(t, "PR-20250310-001", code)

	code, err = NextRuleCode(today, "PR-20250310-007")
	require.NoError(t, err)
	assert.Equal(t, "PR-20250310-008", code)

	code, err = NextRuleCode(today, "PR-20250310-999")
	require.NoError(t, err)
	assert.Equal(t, "PR-20250310-1000", code)

	// A new day restarts the sequence.
	code, err = NextRuleCode(today, "PR-20250309-412")
	require.NoError(t, err)
	assert.Equal(t, "PR-20250310-001", code)

	_, err = NextRuleCode(today, "not-a-code")
	assert.ErrorIs(t, err, ErrInvalidRuleCode)
}
