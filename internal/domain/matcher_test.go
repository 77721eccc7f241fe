package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchingCriteria() RuleCriteria {
	return RuleCriteria{
		ServiceType:     ServiceTypeRegular,
		OriginArea:      Area{Province: "DKI Jakarta", City: "Jakarta Selatan"},
		DestinationArea: Area{Province: "Jawa Barat", City: "Bandung"},
		CustomerType:    CustomerTypeRegular,
	}
}

// TestRuleMatches tests every matching condition
func TestRuleMatches(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *PricingRule)
		criteria func(c RuleCriteria) RuleCriteria
		matches  bool
	}{
		{
			name:     "Baseline matches",
			mutate:   func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria { return c },
			matches:  true,
		},
		{
			name:     "Inactive rule never matches",
			mutate:   func(r *PricingRule) { r.IsActive = false },
			criteria: func(c RuleCriteria) RuleCriteria { return c },
			matches:  false,
		},
		{
			name:   "Service type mismatch",
			mutate: func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria {
				c.ServiceType = ServiceTypeExpress
				return c
			},
			matches: false,
		},
		{
			name:     "Not yet effective",
			mutate:   func(r *PricingRule) { r.EffectiveDate = fixedNow.AddDate(0, 0, 1) },
			criteria: func(c RuleCriteria) RuleCriteria { return c },
			matches:  false,
		},
		{
			name:     "Effective exactly now",
			mutate:   func(r *PricingRule) { r.EffectiveDate = fixedNow },
			criteria: func(c RuleCriteria) RuleCriteria { return c },
			matches:  true,
		},
		{
			name:     "Expired rule",
			mutate:   func(r *PricingRule) { r.ExpiryDate = timePtr(fixedNow.AddDate(0, 0, -1)) },
			criteria: func(c RuleCriteria) RuleCriteria { return c },
			matches:  false,
		},
		{
			name:     "Expiry exactly now still matches",
			mutate:   func(r *PricingRule) { r.ExpiryDate = timePtr(fixedNow) },
			criteria: func(c RuleCriteria) RuleCriteria { return c },
			matches:  true,
		},
		{
			name:   "Customer type not covered",
			mutate: func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria {
				c.CustomerType = CustomerTypeVIP
				return c
			},
			matches: false,
		},
		{
			name:   "Empty customer type defaults to regular",
			mutate: func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria {
				c.CustomerType = ""
				return c
			},
			matches: true,
		},
		{
			name:   "Origin province mismatch",
			mutate: func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria {
				c.OriginArea.Province = "Banten"
				return c
			},
			matches: false,
		},
		{
			name:   "Origin city mismatch",
			mutate: func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria {
				c.OriginArea.City = "Jakarta Barat"
				return c
			},
			matches: false,
		},
		{
			name:   "Destination city mismatch",
			mutate: func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria {
				c.DestinationArea.City = "Bekasi"
				return c
			},
			matches: false,
		},
		{
			name:   "Rule district must match when set",
			mutate: func(r *PricingRule) { r.OriginArea.District = "Kebayoran Baru" },
			criteria: func(c RuleCriteria) RuleCriteria {
				c.OriginArea.District = "Tebet"
				return c
			},
			matches: false,
		},
		{
			name:   "Rule district matches",
			mutate: func(r *PricingRule) { r.OriginArea.District = "Kebayoran Baru" },
			criteria: func(c RuleCriteria) RuleCriteria {
				c.OriginArea.District = "Kebayoran Baru"
				return c
			},
			matches: true,
		},
		{
			name:   "Rule without district covers any district",
			mutate: func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria {
				c.OriginArea.District = "Tebet"
				return c
			},
			matches: true,
		},
		{
			name:     "Branch scoped rule needs matching branch",
			mutate:   func(r *PricingRule) { r.Branch = "JKT-01" },
			criteria: func(c RuleCriteria) RuleCriteria { return c },
			matches:  false,
		},
		{
			name:   "Branch scoped rule matches its branch",
			mutate: func(r *PricingRule) { r.Branch = "JKT-01" },
			criteria: func(c RuleCriteria) RuleCriteria {
				c.Branch = "JKT-01"
				return c
			},
			matches: true,
		},
		{
			name:   "Unscoped rule covers any branch",
			mutate: func(r *PricingRule) {},
			criteria: func(c RuleCriteria) RuleCriteria {
				c.Branch = "BDG-02"
				return c
			},
			matches: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := weightRule()
			tt.mutate(rule)
			assert.Equal(t, tt.matches, rule.Matches(tt.criteria(matchingCriteria()), fixedNow))
		})
	}
}

// TestSelectApplicableRules tests filtering and priority ordering
func TestSelectApplicableRules(t *testing.T) {
	low := weightRule()
	low.Code = "PR-20250301-001"
	low.Priority = 1

	high := weightRule()
	high.Code = "PR-20250301-002"
	high.Priority = 20

	inactive := weightRule()
	inactive.Code = "PR-20250301-003"
	inactive.Priority = 50
	inactive.IsActive = false

	selected := SelectApplicableRules([]*PricingRule{low, inactive, high}, matchingCriteria(), fixedNow)

	require.Len(t, selected, 2)
	assert.Equal(t, "PR-20250301-002", selected[0].Code)
	assert.Equal(t, "PR-20250301-001", selected[1].Code)
}

// TestSelectApplicableRulesTieBreak tests that equal priorities order
// by rule code so the outcome never depends on input order
func TestSelectApplicableRulesTieBreak(t *testing.T) {
	first := weightRule()
	first.Code = "PR-20250301-001"
	first.Priority = 10

	second := weightRule()
	second.Code = "PR-20250301-002"
	second.Priority = 10

	selected := SelectApplicableRules([]*PricingRule{second, first}, matchingCriteria(), fixedNow)

	require.Len(t, selected, 2)
	assert.Equal(t, "PR-20250301-001", selected[0].Code)

	// Same outcome regardless of input order.
	selected = SelectApplicableRules([]*PricingRule{first, second}, matchingCriteria(), fixedNow)
	require.Len(t, selected, 2)
	assert.Equal(t, "PR-20250301-001", selected[0].Code)
}

// TestSelectApplicableRulesNoMatch tests the empty result when no rule
// covers the shipment
func TestSelectApplicableRulesNoMatch(t *testing.T) {
	rule := weightRule()

	criteria := matchingCriteria()
	criteria.ServiceType = ServiceTypeSameDay

	selected := SelectApplicableRules([]*PricingRule{rule}, criteria, fixedNow)
	assert.Empty(t, selected)
}

// TestRuleCriteriaValidate tests criteria validation
func TestRuleCriteriaValidate(t *testing.T) {
	criteria := matchingCriteria()
	assert.NoError(t, criteria.Validate())

	invalid := matchingCriteria()
	invalid.ServiceType = ServiceType("teleport")
	assert.ErrorIs(t, invalid.Validate(), ErrInvalidServiceType)

	incomplete := matchingCriteria()
	incomplete.OriginArea.City = ""
	assert.ErrorIs(t, incomplete.Validate(), ErrAreaIncomplete)
}
