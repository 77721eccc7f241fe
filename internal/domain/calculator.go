package domain

import (
	"fmt"
	"math"
	"time"
)

// PriceRequest is the engine input for one price calculation.
// It is never persisted.
type PriceRequest struct {
	Weight               float64
	Distance             float64
	VolumetricWeight     float64
	SelectedServiceCodes []string
	DiscountCode         string
	CustomerType         CustomerType
	DeclaredValue        float64
}

// Validate rejects numeric edge cases before any calculation proceeds
func (r *PriceRequest) Validate() error {
	if r.Weight <= 0 {
		return ErrInvalidWeight
	}
	if r.Distance < 0 {
		return ErrInvalidDistance
	}
	if r.VolumetricWeight < 0 {
		return ErrInvalidVolumetricWeight
	}
	if r.DeclaredValue < 0 {
		return ErrInvalidDeclaredValue
	}
	if r.CustomerType != "" && !r.CustomerType.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidCustomerType, r.CustomerType)
	}
	return nil
}

// AppliedRule identifies the rule a breakdown was priced under
type AppliedRule struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	ServiceType ServiceType `json:"serviceType"`
	PricingType PricingType `json:"pricingType"`
}

// AppliedDiscount identifies the discount chosen for a breakdown
type AppliedDiscount struct {
	ID           string       `json:"id"`
	Code         string       `json:"code,omitempty"`
	DiscountType DiscountType `json:"discountType"`
	Value        float64      `json:"value"`
	Amount       float64      `json:"amount"`
}

// PriceBreakdown is the fully itemized result of one calculation.
// It is never persisted.
type PriceBreakdown struct {
	BaseRate           float64 `json:"baseRate"`
	AdditionalServices float64 `json:"additionalServices"`
	Insurance          float64 `json:"insurance"`
	Subtotal           float64 `json:"subtotal"`
	Discount           float64 `json:"discount"`
	Tax                float64 `json:"tax"`
	Total              float64 `json:"total"`

	ChargeableWeight float64 `json:"chargeableWeight"`
	ActualWeight     float64 `json:"actualWeight"`
	VolumetricWeight float64 `json:"volumetricWeight"`

	AppliedRule     AppliedRule      `json:"appliedRule"`
	AppliedDiscount *AppliedDiscount `json:"appliedDiscount,omitempty"`
}

// pricingStrategy computes a base rate for one pricing type. The set
// of implementations is closed; strategyFor rejects anything else.
type pricingStrategy interface {
	baseRate(rule *PricingRule, weight, distance float64) float64
}

type flatPricing struct{}

func (flatPricing) baseRate(rule *PricingRule, _, _ float64) float64 {
	return rule.BasePrice
}

type weightPricing struct{}

func (weightPricing) baseRate(rule *PricingRule, weight, _ float64) float64 {
	tier, err := ResolveTier(rule.WeightTiers, weight)
	if err != nil {
		return rule.BasePrice
	}
	return tier.FlatPrice + weight*tier.PricePerUnit
}

type distancePricing struct{}

func (distancePricing) baseRate(rule *PricingRule, _, distance float64) float64 {
	tier, err := ResolveTier(rule.DistanceTiers, distance)
	if err != nil {
		return rule.BasePrice
	}
	return tier.FlatPrice + distance*tier.PricePerUnit
}

type combinedPricing struct{}

func (combinedPricing) baseRate(rule *PricingRule, weight, distance float64) float64 {
	byWeight := weightPricing{}.baseRate(rule, weight, distance)
	byDistance := distancePricing{}.baseRate(rule, weight, distance)
	return byWeight + byDistance
}

func strategyFor(pricingType PricingType) (pricingStrategy, error) {
	switch pricingType {
	case PricingTypeFlat:
		return flatPricing{}, nil
	case PricingTypeWeight:
		return weightPricing{}, nil
	case PricingTypeDistance:
		return distancePricing{}, nil
	case PricingTypeCombined:
		return combinedPricing{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidPricingType, pricingType)
}

// PriceCalculator computes prices against one immutable rule snapshot.
// It holds no other state and is safe for concurrent use.
type PriceCalculator struct {
	rule *PricingRule
}

// NewPriceCalculator creates a calculator bound to a rule snapshot
func NewPriceCalculator(rule *PricingRule) *PriceCalculator {
	return &PriceCalculator{rule: rule}
}

// BaseRate computes the base rate for the given chargeable weight and
// distance, then enforces the rule's price floor
func (c *PriceCalculator) BaseRate(weight, distance float64) (float64, error) {
	strategy, err := strategyFor(c.rule.PricingType)
	if err != nil {
		return 0, err
	}

	amount := strategy.baseRate(c.rule, weight, distance)
	return math.Max(amount, c.rule.MinimumPrice), nil
}

// Surcharges totals the selected special services. Selected codes the
// rule does not carry, and services not applicable to the rule's
// service level, contribute nothing.
func (c *PriceCalculator) Surcharges(selectedCodes []string, baseRate float64) float64 {
	if len(selectedCodes) == 0 {
		return 0
	}

	selected := make(map[string]bool, len(selectedCodes))
	for _, code := range selectedCodes {
		selected[code] = true
	}

	var total float64
	for _, service := range c.rule.SpecialServices {
		if !selected[service.Code] {
			continue
		}
		if !service.AppliesTo(c.rule.ServiceType) {
			continue
		}
		if service.IsPercentage {
			total += baseRate * service.Price / 100
		} else {
			total += service.Price
		}
	}
	return total
}

// DiscountInput carries the order attributes a discount is judged on
type DiscountInput struct {
	DiscountCode string
	CustomerType CustomerType
	Subtotal     float64
}

// Eligible reports whether the discount can be applied to an order on
// the given rule's service level at the given time
func (d *Discount) Eligible(serviceType ServiceType, input DiscountInput, now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartDate.After(now) {
		return false
	}
	if d.EndDate != nil && d.EndDate.Before(now) {
		return false
	}
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return false
	}
	if input.Subtotal < d.MinOrderValue {
		return false
	}
	if !containsCustomerType(d.ApplicableCustomerTypes, input.CustomerType) {
		return false
	}
	if !containsServiceType(d.ApplicableServiceTypes, serviceType) {
		return false
	}
	// A coded discount only applies when the caller supplied its code.
	// Codeless discounts apply regardless of any supplied code.
	if d.Code != "" && d.Code != input.DiscountCode {
		return false
	}
	return true
}

// Amount computes the monetary reduction for a given subtotal.
// Percentage discounts are capped by maxDiscountAmount when set, fixed
// discounts never exceed the subtotal, and free_service reduces
// nothing here.
func (d *Discount) Amount(subtotal float64) float64 {
	switch d.DiscountType {
	case DiscountTypePercentage:
		amount := subtotal * d.Value / 100
		if d.MaxDiscountAmount != nil && amount > *d.MaxDiscountAmount {
			amount = *d.MaxDiscountAmount
		}
		return amount
	case DiscountTypeFixed:
		return math.Min(d.Value, subtotal)
	default:
		return 0
	}
}

// discountRank orders discount types for the tie-break: fixed beats
// percentage beats free_service
func discountRank(discountType DiscountType) int {
	switch discountType {
	case DiscountTypeFixed:
		return 2
	case DiscountTypePercentage:
		return 1
	default:
		return 0
	}
}

func betterDiscount(a, b *Discount) bool {
	rankA, rankB := discountRank(a.DiscountType), discountRank(b.DiscountType)
	if rankA != rankB {
		return rankA > rankB
	}
	return a.Value > b.Value
}

// BestDiscount filters eligible discounts and selects exactly one:
// fixed over percentage, higher value within the same type, earliest
// listed on a full tie. Returns nil and 0 when nothing is eligible.
func (c *PriceCalculator) BestDiscount(input DiscountInput, now time.Time) (*Discount, float64) {
	var best *Discount
	for i := range c.rule.Discounts {
		candidate := &c.rule.Discounts[i]
		if !candidate.Eligible(c.rule.ServiceType, input, now) {
			continue
		}
		if best == nil || betterDiscount(candidate, best) {
			best = candidate
		}
	}

	if best == nil {
		return nil, 0
	}
	return best, best.Amount(input.Subtotal)
}

// Calculate produces the full itemized breakdown for a request. The
// result is deterministic for a given rule snapshot, request, and now.
func (c *PriceCalculator) Calculate(request *PriceRequest, now time.Time) (*PriceBreakdown, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	chargeableWeight := math.Max(request.Weight, request.VolumetricWeight)

	baseRate, err := c.BaseRate(chargeableWeight, request.Distance)
	if err != nil {
		return nil, err
	}

	additionalServices := c.Surcharges(request.SelectedServiceCodes, baseRate)

	var insurance float64
	if request.DeclaredValue > 0 {
		insurance = request.DeclaredValue * c.rule.InsurancePercentage / 100
	}

	subtotal := baseRate + additionalServices + insurance

	customerType := request.CustomerType
	if customerType == "" {
		customerType = CustomerTypeRegular
	}

	applied, discount := c.BestDiscount(DiscountInput{
		DiscountCode: request.DiscountCode,
		CustomerType: customerType,
		Subtotal:     subtotal,
	}, now)

	taxableAmount := subtotal - discount
	tax := taxableAmount * c.rule.TaxPercentage / 100
	total := taxableAmount + tax

	breakdown := &PriceBreakdown{
		BaseRate:           baseRate,
		AdditionalServices: additionalServices,
		Insurance:          insurance,
		Subtotal:           subtotal,
		Discount:           discount,
		Tax:                tax,
		Total:              total,
		ChargeableWeight:   chargeableWeight,
		ActualWeight:       request.Weight,
		VolumetricWeight:   request.VolumetricWeight,
		AppliedRule: AppliedRule{
			Code:        c.rule.Code,
			Name:        c.rule.Name,
			ServiceType: c.rule.ServiceType,
			PricingType: c.rule.PricingType,
		},
	}

	if applied != nil {
		breakdown.AppliedDiscount = &AppliedDiscount{
			ID:           applied.ID,
			Code:         applied.Code,
			DiscountType: applied.DiscountType,
			Value:        applied.Value,
			Amount:       discount,
		}
	}

	return breakdown, nil
}

func containsServiceType(types []ServiceType, serviceType ServiceType) bool {
	for _, t := range types {
		if t == serviceType {
			return true
		}
	}
	return false
}

func containsCustomerType(types []CustomerType, customerType CustomerType) bool {
	for _, t := range types {
		if t == customerType {
			return true
		}
	}
	return false
}
