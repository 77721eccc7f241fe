package domain

import (
	"sort"
	"time"
)

// RuleCriteria carries the shipment attributes a rule is matched on
type RuleCriteria struct {
	ServiceType     ServiceType  `json:"serviceType"`
	OriginArea      Area         `json:"originArea"`
	DestinationArea Area         `json:"destinationArea"`
	CustomerType    CustomerType `json:"customerType"`
	Branch          string       `json:"branch,omitempty"`
}

// Validate checks the criteria carry enough to match on
func (c RuleCriteria) Validate() error {
	if !c.ServiceType.IsValid() {
		return ErrInvalidServiceType
	}
	if c.CustomerType != "" && !c.CustomerType.IsValid() {
		return ErrInvalidCustomerType
	}
	if err := c.OriginArea.Validate(); err != nil {
		return err
	}
	return c.DestinationArea.Validate()
}

// normalized fills criteria defaults
func (c RuleCriteria) normalized() RuleCriteria {
	if c.CustomerType == "" {
		c.CustomerType = CustomerTypeRegular
	}
	return c
}

// Matches reports whether the rule applies to the given criteria at
// the given time
func (r *PricingRule) Matches(criteria RuleCriteria, now time.Time) bool {
	criteria = criteria.normalized()

	if !r.IsActive {
		return false
	}
	if r.ServiceType != criteria.ServiceType {
		return false
	}
	if r.EffectiveDate.After(now) {
		return false
	}
	if r.ExpiryDate != nil && r.ExpiryDate.Before(now) {
		return false
	}
	if !containsCustomerType(r.ApplicableCustomerTypes, criteria.CustomerType) {
		return false
	}
	if !r.OriginArea.Matches(criteria.OriginArea) {
		return false
	}
	if !r.DestinationArea.Matches(criteria.DestinationArea) {
		return false
	}
	// An unscoped rule applies to every branch.
	if r.Branch != "" && r.Branch != criteria.Branch {
		return false
	}
	return true
}

// SelectApplicableRules keeps the rules matching the criteria, ordered
// by priority descending. Equal priorities order by rule code
// ascending so the outcome never depends on store ordering.
func SelectApplicableRules(rules []*PricingRule, criteria RuleCriteria, now time.Time) []*PricingRule {
	matched := make([]*PricingRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Matches(criteria, now) {
			matched = append(matched, rule)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].Code < matched[j].Code
	})

	return matched
}
