package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuleLifecycleEvents(t *testing.T) {
	now := time.Now().UTC()

	created := &RuleCreatedEvent{
		RuleCode:    "PR-20250310-001",
		Name:        "Jakarta - Bandung Regular",
		ServiceType: ServiceTypeRegular,
		PricingType: PricingTypeWeight,
		Priority:    10,
		CreatedAt:   now,
	}
	assert.Equal(t, "pricing.rule.created", created.EventType())
	assert.Equal(t, created.CreatedAt, created.OccurredAt())

	activated := &RuleActivatedEvent{RuleCode: "PR-20250310-001", ActivatedAt: now}
	assert.Equal(t, "pricing.rule.activated", activated.EventType())
	assert.Equal(t, activated.ActivatedAt, activated.OccurredAt())

	deactivated := &RuleDeactivatedEvent{RuleCode: "PR-20250310-001", DeactivatedAt: now}
	assert.Equal(t, "pricing.rule.deactivated", deactivated.EventType())
	assert.Equal(t, deactivated.DeactivatedAt, deactivated.OccurredAt())
}

func TestTierAndServiceEvents(t *testing.T) {
	added := newTierAddedEvent("PR-20250310-001", TierKindWeight, Tier{
		Min: 0, Max: floatPtr(1), PricePerUnit: 10000,
	})
	assert.Equal(t, "pricing.tier.added", added.EventType())
	assert.Equal(t, TierKindWeight, added.Kind)
	assert.Equal(t, float64(0), added.Min)
	assert.Equal(t, added.AddedAt, added.OccurredAt())

	removed := newTierRemovedEvent("PR-20250310-001", TierKindDistance, 50)
	assert.Equal(t, "pricing.tier.removed", removed.EventType())
	assert.Equal(t, TierKindDistance, removed.Kind)
	assert.Equal(t, removed.RemovedAt, removed.OccurredAt())

	now := time.Now().UTC()
	serviceAdded := &ServiceAddedEvent{
		RuleCode: "PR-20250310-001", ServiceCode: "PACKING",
		Name: "Wooden packing", Price: 5000, AddedAt: now,
	}
	assert.Equal(t, "pricing.service.added", serviceAdded.EventType())
	assert.Equal(t, now, serviceAdded.OccurredAt())

	serviceRemoved := &ServiceRemovedEvent{
		RuleCode: "PR-20250310-001", ServiceCode: "PACKING", RemovedAt: now,
	}
	assert.Equal(t, "pricing.service.removed", serviceRemoved.EventType())
}

func TestDiscountEvents(t *testing.T) {
	now := time.Now().UTC()

	added := &DiscountAddedEvent{
		RuleCode: "PR-20250310-001", DiscountID: "DSC-1", DiscountCode: "HEMAT10",
		DiscountType: DiscountTypePercentage, Value: 10, AddedAt: now,
	}
	assert.Equal(t, "pricing.discount.added", added.EventType())
	assert.Equal(t, now, added.OccurredAt())

	removed := &DiscountRemovedEvent{
		RuleCode: "PR-20250310-001", DiscountID: "DSC-1", RemovedAt: now,
	}
	assert.Equal(t, "pricing.discount.removed", removed.EventType())

	redeemed := &DiscountRedeemedEvent{
		RuleCode: "PR-20250310-001", DiscountID: "DSC-1",
		UsageCount: 3, RedeemedAt: now,
	}
	assert.Equal(t, "pricing.discount.redeemed", redeemed.EventType())
	assert.Equal(t, now, redeemed.OccurredAt())
}
