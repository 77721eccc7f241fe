package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for the pricing domain
var (
	ErrInvalidRuleCode         = errors.New("invalid rule code format")
	ErrInvalidServiceType      = errors.New("invalid service type")
	ErrInvalidPricingType      = errors.New("invalid pricing type")
	ErrInvalidCustomerType     = errors.New("invalid customer type")
	ErrInvalidDiscountType     = errors.New("invalid discount type")
	ErrRuleNameRequired        = errors.New("rule name is required")
	ErrAreaIncomplete          = errors.New("area province and city are required")
	ErrNoCustomerTypes         = errors.New("at least one applicable customer type is required")
	ErrNoServiceTypes          = errors.New("at least one applicable service type is required")
	ErrNegativePrice           = errors.New("price must be zero or greater")
	ErrInvalidWeight           = errors.New("weight must be positive")
	ErrInvalidDistance         = errors.New("distance must be zero or greater")
	ErrInvalidVolumetricWeight = errors.New("volumetric weight must be zero or greater")
	ErrInvalidDeclaredValue    = errors.New("declared value must be zero or greater")
	ErrInvalidDiscountValue    = errors.New("discount value must be positive")
	ErrInvalidDateRange        = errors.New("end date must be after start date")
	ErrTierBounds              = errors.New("tier minimum must be less than maximum")
	ErrTierOverlap             = errors.New("tier overlaps an existing tier")
	ErrTierNotFound            = errors.New("tier not found")
	ErrNoTiers                 = errors.New("no tiers defined")
	ErrServiceCodeRequired     = errors.New("special service code is required")
	ErrServiceExists           = errors.New("special service already exists")
	ErrServiceNotFound         = errors.New("special service not found")
	ErrDiscountExists          = errors.New("discount already exists")
	ErrDiscountNotFound        = errors.New("discount not found")
	ErrDiscountUsageLimit      = errors.New("discount usage limit reached")
	ErrNoApplicableRule        = errors.New("no applicable pricing rule for the given criteria")
	ErrVersionConflict         = errors.New("pricing rule was modified concurrently")
	ErrRuleExists              = errors.New("pricing rule already exists")
	ErrRuleNotFound            = errors.New("pricing rule not found")
)

// ServiceType represents the shipment service level
type ServiceType string

const (
	ServiceTypeRegular ServiceType = "regular"
	ServiceTypeExpress ServiceType = "express"
	ServiceTypeSameDay ServiceType = "same_day"
	ServiceTypeNextDay ServiceType = "next_day"
	ServiceTypeEconomy ServiceType = "economy"
)

// IsValid checks if the service type is valid
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTypeRegular, ServiceTypeExpress, ServiceTypeSameDay,
		ServiceTypeNextDay, ServiceTypeEconomy:
		return true
	}
	return false
}

// PricingType represents how a rule derives its base rate
type PricingType string

const (
	PricingTypeWeight   PricingType = "weight"
	PricingTypeDistance PricingType = "distance"
	PricingTypeFlat     PricingType = "flat"
	PricingTypeCombined PricingType = "combined"
)

// IsValid checks if the pricing type is valid
func (p PricingType) IsValid() bool {
	switch p {
	case PricingTypeWeight, PricingTypeDistance, PricingTypeFlat, PricingTypeCombined:
		return true
	}
	return false
}

// CustomerType represents the customer segment a rule or discount applies to
type CustomerType string

const (
	CustomerTypeRegular   CustomerType = "regular"
	CustomerTypeCorporate CustomerType = "corporate"
	CustomerTypeVIP       CustomerType = "vip"
)

// IsValid checks if the customer type is valid
func (c CustomerType) IsValid() bool {
	switch c {
	case CustomerTypeRegular, CustomerTypeCorporate, CustomerTypeVIP:
		return true
	}
	return false
}

// DiscountType represents how a discount reduces the subtotal
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixed       DiscountType = "fixed"
	DiscountTypeFreeService DiscountType = "free_service"
)

// IsValid checks if the discount type is valid
func (d DiscountType) IsValid() bool {
	switch d {
	case DiscountTypePercentage, DiscountTypeFixed, DiscountTypeFreeService:
		return true
	}
	return false
}

// Area identifies an administrative region by name, not geometry
type Area struct {
	Province string `bson:"province" json:"province"`
	City     string `bson:"city" json:"city"`
	District string `bson:"district,omitempty" json:"district,omitempty"`
}

// Validate checks that the area carries the required fields
func (a Area) Validate() error {
	if a.Province == "" || a.City == "" {
		return ErrAreaIncomplete
	}
	return nil
}

// Matches reports whether a requested area falls under this area scope.
// Fields set on the scope must match exactly; an empty district widens
// the scope to the whole city.
func (a Area) Matches(req Area) bool {
	if a.Province != "" && a.Province != req.Province {
		return false
	}
	if a.City != "" && a.City != req.City {
		return false
	}
	if a.District != "" && a.District != req.District {
		return false
	}
	return true
}

// SpecialService represents an optional add-on surcharge on a rule
type SpecialService struct {
	Code         string  `bson:"code" json:"code"`
	Name         string  `bson:"name" json:"name"`
	Price        float64 `bson:"price" json:"price"`
	IsPercentage bool    `bson:"isPercentage" json:"isPercentage"`

	// Service levels the surcharge may be added to
	ApplicableServiceTypes []ServiceType `bson:"applicableServiceTypes" json:"applicableServiceTypes"`
}

// Validate checks the special service invariants
func (s SpecialService) Validate() error {
	if s.Code == "" {
		return ErrServiceCodeRequired
	}
	if s.Price < 0 {
		return ErrNegativePrice
	}
	if len(s.ApplicableServiceTypes) == 0 {
		return ErrNoServiceTypes
	}
	for _, st := range s.ApplicableServiceTypes {
		if !st.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidServiceType, st)
		}
	}
	return nil
}

// AppliesTo reports whether the surcharge may be added for a service level
func (s SpecialService) AppliesTo(serviceType ServiceType) bool {
	for _, st := range s.ApplicableServiceTypes {
		if st == serviceType {
			return true
		}
	}
	return false
}

// Discount represents a conditional price reduction on a rule
type Discount struct {
	ID   string `bson:"id" json:"id"`
	Code string `bson:"code,omitempty" json:"code,omitempty"`

	DiscountType      DiscountType `bson:"discountType" json:"discountType"`
	Value             float64      `bson:"value" json:"value"`
	MaxDiscountAmount *float64     `bson:"maxDiscountAmount,omitempty" json:"maxDiscountAmount,omitempty"`
	MinOrderValue     float64      `bson:"minOrderValue" json:"minOrderValue"`

	// Eligibility scope
	ApplicableServiceTypes  []ServiceType  `bson:"applicableServiceTypes" json:"applicableServiceTypes"`
	ApplicableCustomerTypes []CustomerType `bson:"applicableCustomerTypes" json:"applicableCustomerTypes"`

	// Validity window and usage budget
	StartDate  time.Time  `bson:"startDate" json:"startDate"`
	EndDate    *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	UsageLimit *int       `bson:"usageLimit,omitempty" json:"usageLimit,omitempty"`
	UsageCount int        `bson:"usageCount" json:"usageCount"`
	IsActive   bool       `bson:"isActive" json:"isActive"`
}

// Validate checks the discount invariants
func (d Discount) Validate() error {
	if !d.DiscountType.IsValid() {
		return ErrInvalidDiscountType
	}
	if d.DiscountType != DiscountTypeFreeService && d.Value <= 0 {
		return ErrInvalidDiscountValue
	}
	if d.MinOrderValue < 0 {
		return ErrNegativePrice
	}
	if d.MaxDiscountAmount != nil && *d.MaxDiscountAmount < 0 {
		return ErrNegativePrice
	}
	if len(d.ApplicableServiceTypes) == 0 {
		return ErrNoServiceTypes
	}
	for _, st := range d.ApplicableServiceTypes {
		if !st.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidServiceType, st)
		}
	}
	if len(d.ApplicableCustomerTypes) == 0 {
		return ErrNoCustomerTypes
	}
	for _, ct := range d.ApplicableCustomerTypes {
		if !ct.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidCustomerType, ct)
		}
	}
	if d.EndDate != nil && !d.EndDate.After(d.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// DefaultVolumetricDivisor converts cm³ to kg for standard ground freight
const DefaultVolumetricDivisor = 6000

// PricingRule is a priced offer for a lane and service combination.
// The calculation path treats a rule as an immutable snapshot; all
// mutations go through the methods below and are persisted with a
// version check.
type PricingRule struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code string             `bson:"code" json:"code"`
	Name string             `bson:"name" json:"name"`

	// Selection criteria
	ServiceType             ServiceType    `bson:"serviceType" json:"serviceType"`
	OriginArea              Area           `bson:"originArea" json:"originArea"`
	DestinationArea         Area           `bson:"destinationArea" json:"destinationArea"`
	ApplicableCustomerTypes []CustomerType `bson:"applicableCustomerTypes" json:"applicableCustomerTypes"`
	Branch                  string         `bson:"branch,omitempty" json:"branch,omitempty"`

	// Rate structure
	PricingType       PricingType `bson:"pricingType" json:"pricingType"`
	BasePrice         float64     `bson:"basePrice" json:"basePrice"`
	MinimumPrice      float64     `bson:"minimumPrice" json:"minimumPrice"`
	VolumetricDivisor float64     `bson:"volumetricDivisor" json:"volumetricDivisor"`
	WeightTiers       []Tier      `bson:"weightTiers" json:"weightTiers"`
	DistanceTiers     []Tier      `bson:"distanceTiers" json:"distanceTiers"`

	// Add-ons and reductions
	SpecialServices []SpecialService `bson:"specialServices" json:"specialServices"`
	Discounts       []Discount       `bson:"discounts" json:"discounts"`

	// Percentages applied at assembly time
	TaxPercentage       float64 `bson:"taxPercentage" json:"taxPercentage"`
	InsurancePercentage float64 `bson:"insurancePercentage" json:"insurancePercentage"`

	// Validity and ordering
	EffectiveDate time.Time  `bson:"effectiveDate" json:"effectiveDate"`
	ExpiryDate    *time.Time `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	Priority      int        `bson:"priority" json:"priority"`
	IsActive      bool       `bson:"isActive" json:"isActive"`

	// Optimistic concurrency control
	Version int64 `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Domain events
	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// RuleDraft carries the attributes needed to create a pricing rule
type RuleDraft struct {
	Code                    string
	Name                    string
	ServiceType             ServiceType
	PricingType             PricingType
	OriginArea              Area
	DestinationArea         Area
	ApplicableCustomerTypes []CustomerType
	Branch                  string
	BasePrice               float64
	MinimumPrice            float64
	VolumetricDivisor       float64
	TaxPercentage           float64
	InsurancePercentage     float64
	EffectiveDate           time.Time
	ExpiryDate              *time.Time
	Priority                int
}

// NewPricingRule creates a new pricing rule from a draft
func NewPricingRule(draft RuleDraft) (*PricingRule, error) {
	if _, _, err := ParseRuleCode(draft.Code); err != nil {
		return nil, err
	}
	if draft.Name == "" {
		return nil, ErrRuleNameRequired
	}
	if !draft.ServiceType.IsValid() {
		return nil, ErrInvalidServiceType
	}
	if !draft.PricingType.IsValid() {
		return nil, ErrInvalidPricingType
	}
	if err := draft.OriginArea.Validate(); err != nil {
		return nil, err
	}
	if err := draft.DestinationArea.Validate(); err != nil {
		return nil, err
	}
	if len(draft.ApplicableCustomerTypes) == 0 {
		return nil, ErrNoCustomerTypes
	}
	for _, ct := range draft.ApplicableCustomerTypes {
		if !ct.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCustomerType, ct)
		}
	}
	if draft.BasePrice < 0 || draft.MinimumPrice < 0 ||
		draft.TaxPercentage < 0 || draft.InsurancePercentage < 0 {
		return nil, ErrNegativePrice
	}
	if draft.ExpiryDate != nil && !draft.ExpiryDate.After(draft.EffectiveDate) {
		return nil, ErrInvalidDateRange
	}

	now := time.Now().UTC()

	effectiveDate := draft.EffectiveDate
	if effectiveDate.IsZero() {
		effectiveDate = now
	}

	divisor := draft.VolumetricDivisor
	if divisor <= 0 {
		divisor = DefaultVolumetricDivisor
	}

	rule := &PricingRule{
		ID:                      primitive.NewObjectID(),
		Code:                    draft.Code,
		Name:                    draft.Name,
		ServiceType:             draft.ServiceType,
		OriginArea:              draft.OriginArea,
		DestinationArea:         draft.DestinationArea,
		ApplicableCustomerTypes: draft.ApplicableCustomerTypes,
		Branch:                  draft.Branch,
		PricingType:             draft.PricingType,
		BasePrice:               draft.BasePrice,
		MinimumPrice:            draft.MinimumPrice,
		VolumetricDivisor:       divisor,
		WeightTiers:             make([]Tier, 0),
		DistanceTiers:           make([]Tier, 0),
		SpecialServices:         make([]SpecialService, 0),
		Discounts:               make([]Discount, 0),
		TaxPercentage:           draft.TaxPercentage,
		InsurancePercentage:     draft.InsurancePercentage,
		EffectiveDate:           effectiveDate,
		ExpiryDate:              draft.ExpiryDate,
		Priority:                draft.Priority,
		IsActive:                true,
		Version:                 0,
		CreatedAt:               now,
		UpdatedAt:               now,
		domainEvents:            make([]DomainEvent, 0),
	}

	rule.addDomainEvent(&RuleCreatedEvent{
		RuleCode:    rule.Code,
		Name:        rule.Name,
		ServiceType: rule.ServiceType,
		PricingType: rule.PricingType,
		Priority:    rule.Priority,
		CreatedAt:   now,
	})

	return rule, nil
}

// VolumetricWeightFor converts package dimensions in centimeters to a
// volumetric weight in kilograms using the rule's divisor
func (r *PricingRule) VolumetricWeightFor(length, width, height float64) float64 {
	if r.VolumetricDivisor <= 0 {
		return 0
	}
	return length * width * height / r.VolumetricDivisor
}

// AddWeightTier adds a weight tier after checking bounds and overlap
func (r *PricingRule) AddWeightTier(tier Tier) error {
	if err := r.addTier(&r.WeightTiers, tier); err != nil {
		return err
	}
	r.addDomainEvent(newTierAddedEvent(r.Code, TierKindWeight, tier))
	return nil
}

// RemoveWeightTier removes the weight tier starting at the given minimum
func (r *PricingRule) RemoveWeightTier(min float64) error {
	if err := r.removeTier(&r.WeightTiers, min); err != nil {
		return err
	}
	r.addDomainEvent(newTierRemovedEvent(r.Code, TierKindWeight, min))
	return nil
}

// AddDistanceTier adds a distance tier after checking bounds and overlap
func (r *PricingRule) AddDistanceTier(tier Tier) error {
	if err := r.addTier(&r.DistanceTiers, tier); err != nil {
		return err
	}
	r.addDomainEvent(newTierAddedEvent(r.Code, TierKindDistance, tier))
	return nil
}

// RemoveDistanceTier removes the distance tier starting at the given minimum
func (r *PricingRule) RemoveDistanceTier(min float64) error {
	if err := r.removeTier(&r.DistanceTiers, min); err != nil {
		return err
	}
	r.addDomainEvent(newTierRemovedEvent(r.Code, TierKindDistance, min))
	return nil
}

func (r *PricingRule) addTier(tiers *[]Tier, tier Tier) error {
	if err := tier.Validate(); err != nil {
		return err
	}
	if err := CheckTierOverlap(*tiers, tier); err != nil {
		return err
	}

	*tiers = append(*tiers, tier)
	sort.Slice(*tiers, func(i, j int) bool {
		return (*tiers)[i].Min < (*tiers)[j].Min
	})
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PricingRule) removeTier(tiers *[]Tier, min float64) error {
	for i, t := range *tiers {
		if t.Min == min {
			*tiers = append((*tiers)[:i], (*tiers)[i+1:]...)
			r.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrTierNotFound
}

// AddSpecialService adds a surcharge option to the rule
func (r *PricingRule) AddSpecialService(service SpecialService) error {
	if err := service.Validate(); err != nil {
		return err
	}
	for _, existing := range r.SpecialServices {
		if existing.Code == service.Code {
			return ErrServiceExists
		}
	}

	r.SpecialServices = append(r.SpecialServices, service)
	r.UpdatedAt = time.Now().UTC()

	r.addDomainEvent(&ServiceAddedEvent{
		RuleCode:    r.Code,
		ServiceCode: service.Code,
		Name:        service.Name,
		Price:       service.Price,
		AddedAt:     r.UpdatedAt,
	})
	return nil
}

// RemoveSpecialService removes a surcharge option by code
func (r *PricingRule) RemoveSpecialService(code string) error {
	for i, existing := range r.SpecialServices {
		if existing.Code == code {
			r.SpecialServices = append(r.SpecialServices[:i], r.SpecialServices[i+1:]...)
			r.UpdatedAt = time.Now().UTC()

			r.addDomainEvent(&ServiceRemovedEvent{
				RuleCode:    r.Code,
				ServiceCode: code,
				RemovedAt:   r.UpdatedAt,
			})
			return nil
		}
	}
	return ErrServiceNotFound
}

// AddDiscount adds a discount to the rule. An identifier is generated
// when the discount does not carry one so codeless discounts stay
// addressable.
func (r *PricingRule) AddDiscount(discount Discount) error {
	if err := discount.Validate(); err != nil {
		return err
	}
	for _, existing := range r.Discounts {
		if discount.Code != "" && existing.Code == discount.Code {
			return ErrDiscountExists
		}
	}

	if discount.ID == "" {
		discount.ID = fmt.Sprintf("DSC-%s", uuid.New().String()[:8])
	}

	r.Discounts = append(r.Discounts, discount)
	r.UpdatedAt = time.Now().UTC()

	r.addDomainEvent(&DiscountAddedEvent{
		RuleCode:     r.Code,
		DiscountID:   discount.ID,
		DiscountCode: discount.Code,
		DiscountType: discount.DiscountType,
		Value:        discount.Value,
		AddedAt:      r.UpdatedAt,
	})
	return nil
}

// RemoveDiscount removes a discount by its identifier or code
func (r *PricingRule) RemoveDiscount(key string) error {
	for i, existing := range r.Discounts {
		if existing.ID == key || (existing.Code != "" && existing.Code == key) {
			r.Discounts = append(r.Discounts[:i], r.Discounts[i+1:]...)
			r.UpdatedAt = time.Now().UTC()

			r.addDomainEvent(&DiscountRemovedEvent{
				RuleCode:     r.Code,
				DiscountID:   existing.ID,
				DiscountCode: existing.Code,
				RemovedAt:    r.UpdatedAt,
			})
			return nil
		}
	}
	return ErrDiscountNotFound
}

// RedeemDiscount records one use of a discount, identified by its
// identifier or code. The caller persists the rule under a version
// check so concurrent redemptions cannot exceed the usage limit.
func (r *PricingRule) RedeemDiscount(key string, now time.Time) error {
	for i := range r.Discounts {
		d := &r.Discounts[i]
		if d.ID != key && (d.Code == "" || d.Code != key) {
			continue
		}
		if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
			return ErrDiscountUsageLimit
		}

		d.UsageCount++
		r.UpdatedAt = now.UTC()

		r.addDomainEvent(&DiscountRedeemedEvent{
			RuleCode:     r.Code,
			DiscountID:   d.ID,
			DiscountCode: d.Code,
			UsageCount:   d.UsageCount,
			RedeemedAt:   r.UpdatedAt,
		})
		return nil
	}
	return ErrDiscountNotFound
}

// Activate makes the rule eligible for matching
func (r *PricingRule) Activate() {
	if r.IsActive {
		return
	}

	r.IsActive = true
	r.UpdatedAt = time.Now().UTC()

	r.addDomainEvent(&RuleActivatedEvent{
		RuleCode:    r.Code,
		ActivatedAt: r.UpdatedAt,
	})
}

// Deactivate withdraws the rule from matching without deleting it
func (r *PricingRule) Deactivate() {
	if !r.IsActive {
		return
	}

	r.IsActive = false
	r.UpdatedAt = time.Now().UTC()

	r.addDomainEvent(&RuleDeactivatedEvent{
		RuleCode:      r.Code,
		DeactivatedAt: r.UpdatedAt,
	})
}

// Domain event helpers
func (r *PricingRule) addDomainEvent(event DomainEvent) {
	r.domainEvents = append(r.domainEvents, event)
}

// DomainEvents returns all pending domain events
func (r *PricingRule) DomainEvents() []DomainEvent {
	return r.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (r *PricingRule) ClearDomainEvents() {
	r.domainEvents = make([]DomainEvent, 0)
}
