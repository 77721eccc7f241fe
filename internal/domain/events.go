package domain

import "time"

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// RuleCreatedEvent is emitted when a new pricing rule is created
type RuleCreatedEvent struct {
	RuleCode    string      `json:"ruleCode"`
	Name        string      `json:"name"`
	ServiceType ServiceType `json:"serviceType"`
	PricingType PricingType `json:"pricingType"`
	Priority    int         `json:"priority"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (e *RuleCreatedEvent) EventType() string     { return "pricing.rule.created" }
func (e *RuleCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// RuleActivatedEvent is emitted when a rule becomes eligible for matching
type RuleActivatedEvent struct {
	RuleCode    string    `json:"ruleCode"`
	ActivatedAt time.Time `json:"activatedAt"`
}

func (e *RuleActivatedEvent) EventType() string     { return "pricing.rule.activated" }
func (e *RuleActivatedEvent) OccurredAt() time.Time { return e.ActivatedAt }

// RuleDeactivatedEvent is emitted when a rule is withdrawn from matching
type RuleDeactivatedEvent struct {
	RuleCode      string    `json:"ruleCode"`
	DeactivatedAt time.Time `json:"deactivatedAt"`
}

func (e *RuleDeactivatedEvent) EventType() string     { return "pricing.rule.deactivated" }
func (e *RuleDeactivatedEvent) OccurredAt() time.Time { return e.DeactivatedAt }

// TierAddedEvent is emitted when a weight or distance tier is added
type TierAddedEvent struct {
	RuleCode     string    `json:"ruleCode"`
	Kind         TierKind  `json:"kind"`
	Min          float64   `json:"min"`
	Max          *float64  `json:"max,omitempty"`
	PricePerUnit float64   `json:"pricePerUnit"`
	FlatPrice    float64   `json:"flatPrice"`
	AddedAt      time.Time `json:"addedAt"`
}

func (e *TierAddedEvent) EventType() string     { return "pricing.tier.added" }
func (e *TierAddedEvent) OccurredAt() time.Time { return e.AddedAt }

func newTierAddedEvent(ruleCode string, kind TierKind, tier Tier) *TierAddedEvent {
	return &TierAddedEvent{
		RuleCode:     ruleCode,
		Kind:         kind,
		Min:          tier.Min,
		Max:          tier.Max,
		PricePerUnit: tier.PricePerUnit,
		FlatPrice:    tier.FlatPrice,
		AddedAt:      time.Now().UTC(),
	}
}

// TierRemovedEvent is emitted when a weight or distance tier is removed
type TierRemovedEvent struct {
	RuleCode  string    `json:"ruleCode"`
	Kind      TierKind  `json:"kind"`
	Min       float64   `json:"min"`
	RemovedAt time.Time `json:"removedAt"`
}

func (e *TierRemovedEvent) EventType() string     { return "pricing.tier.removed" }
func (e *TierRemovedEvent) OccurredAt() time.Time { return e.RemovedAt }

func newTierRemovedEvent(ruleCode string, kind TierKind, min float64) *TierRemovedEvent {
	return &TierRemovedEvent{
		RuleCode:  ruleCode,
		Kind:      kind,
		Min:       min,
		RemovedAt: time.Now().UTC(),
	}
}

// ServiceAddedEvent is emitted when a special service is added to a rule
type ServiceAddedEvent struct {
	RuleCode    string    `json:"ruleCode"`
	ServiceCode string    `json:"serviceCode"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	AddedAt     time.Time `json:"addedAt"`
}

func (e *ServiceAddedEvent) EventType() string     { return "pricing.service.added" }
func (e *ServiceAddedEvent) OccurredAt() time.Time { return e.AddedAt }

// ServiceRemovedEvent is emitted when a special service is removed from a rule
type ServiceRemovedEvent struct {
	RuleCode    string    `json:"ruleCode"`
	ServiceCode string    `json:"serviceCode"`
	RemovedAt   time.Time `json:"removedAt"`
}

func (e *ServiceRemovedEvent) EventType() string     { return "pricing.service.removed" }
func (e *ServiceRemovedEvent) OccurredAt() time.Time { return e.RemovedAt }

// DiscountAddedEvent is emitted when a discount is added to a rule
type DiscountAddedEvent struct {
	RuleCode     string       `json:"ruleCode"`
	DiscountID   string       `json:"discountId"`
	DiscountCode string       `json:"discountCode,omitempty"`
	DiscountType DiscountType `json:"discountType"`
	Value        float64      `json:"value"`
	AddedAt      time.Time    `json:"addedAt"`
}

func (e *DiscountAddedEvent) EventType() string     { return "pricing.discount.added" }
func (e *DiscountAddedEvent) OccurredAt() time.Time { return e.AddedAt }

// DiscountRemovedEvent is emitted when a discount is removed from a rule
type DiscountRemovedEvent struct {
	RuleCode     string    `json:"ruleCode"`
	DiscountID   string    `json:"discountId"`
	DiscountCode string    `json:"discountCode,omitempty"`
	RemovedAt    time.Time `json:"removedAt"`
}

func (e *DiscountRemovedEvent) EventType() string     { return "pricing.discount.removed" }
func (e *DiscountRemovedEvent) OccurredAt() time.Time { return e.RemovedAt }

// DiscountRedeemedEvent is emitted when one use of a discount is recorded
type DiscountRedeemedEvent struct {
	RuleCode     string    `json:"ruleCode"`
	DiscountID   string    `json:"discountId"`
	DiscountCode string    `json:"discountCode,omitempty"`
	UsageCount   int       `json:"usageCount"`
	RedeemedAt   time.Time `json:"redeemedAt"`
}

func (e *DiscountRedeemedEvent) EventType() string     { return "pricing.discount.redeemed" }
func (e *DiscountRedeemedEvent) OccurredAt() time.Time { return e.RedeemedAt }
