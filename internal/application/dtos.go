package application

import (
	"time"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/domain"
)

// AreaInput identifies an administrative region in a request
type AreaInput struct {
	Province string `json:"province" binding:"required"`
	City     string `json:"city" binding:"required"`
	District string `json:"district"`
}

// DimensionsInput carries package dimensions in centimeters. When a
// request supplies dimensions instead of a volumetric weight, the
// matched rule's divisor converts them.
type DimensionsInput struct {
	Length float64 `json:"length" binding:"required,gt=0"`
	Width  float64 `json:"width" binding:"required,gt=0"`
	Height float64 `json:"height" binding:"required,gt=0"`
}

// CalculatePriceCommand represents a price quote request
type CalculatePriceCommand struct {
	ServiceType      string           `json:"serviceType" binding:"required,service_type"`
	Origin           AreaInput        `json:"origin" binding:"required"`
	Destination      AreaInput        `json:"destination" binding:"required"`
	CustomerType     string           `json:"customerType" binding:"omitempty,customer_type"`
	Branch           string           `json:"branch"`
	Weight           float64          `json:"weight" binding:"required,gt=0"`
	Distance         float64          `json:"distance" binding:"gte=0"`
	VolumetricWeight float64          `json:"volumetricWeight" binding:"gte=0"`
	Dimensions       *DimensionsInput `json:"dimensions"`
	DeclaredValue    float64          `json:"declaredValue" binding:"gte=0"`
	SelectedServices []string         `json:"selectedServices"`
	DiscountCode     string           `json:"discountCode"`
}

// FindApplicableRulesQuery represents a rule matching request
type FindApplicableRulesQuery struct {
	ServiceType  string
	Origin       AreaInput
	Destination  AreaInput
	CustomerType string
	Branch       string
}

// CreateRuleCommand represents a request to create a pricing rule.
// When Code is empty the service allocates the next code for today.
type CreateRuleCommand struct {
	Code                string     `json:"code" binding:"omitempty,rule_code"`
	Name                string     `json:"name" binding:"required"`
	ServiceType         string     `json:"serviceType" binding:"required,service_type"`
	PricingType         string     `json:"pricingType" binding:"required,pricing_type"`
	Origin              AreaInput  `json:"origin" binding:"required"`
	Destination         AreaInput  `json:"destination" binding:"required"`
	CustomerTypes       []string   `json:"customerTypes" binding:"required,min=1,dive,customer_type"`
	Branch              string     `json:"branch"`
	BasePrice           float64    `json:"basePrice" binding:"gte=0"`
	MinimumPrice        float64    `json:"minimumPrice" binding:"gte=0"`
	VolumetricDivisor   float64    `json:"volumetricDivisor" binding:"gte=0"`
	TaxPercentage       float64    `json:"taxPercentage" binding:"gte=0"`
	InsurancePercentage float64    `json:"insurancePercentage" binding:"gte=0"`
	EffectiveDate       time.Time  `json:"effectiveDate"`
	ExpiryDate          *time.Time `json:"expiryDate"`
	Priority            int        `json:"priority"`
}

// AddTierCommand represents a request to add a weight or distance tier
type AddTierCommand struct {
	Min          float64  `json:"min" binding:"gte=0"`
	Max          *float64 `json:"max" binding:"omitempty,gt=0"`
	PricePerUnit float64  `json:"pricePerUnit" binding:"gte=0"`
	FlatPrice    float64  `json:"flatPrice" binding:"gte=0"`
}

// AddServiceCommand represents a request to add a special service
type AddServiceCommand struct {
	Code                   string   `json:"code" binding:"required"`
	Name                   string   `json:"name" binding:"required"`
	Price                  float64  `json:"price" binding:"gte=0"`
	IsPercentage           bool     `json:"isPercentage"`
	ApplicableServiceTypes []string `json:"applicableServiceTypes" binding:"required,min=1,dive,service_type"`
}

// AddDiscountCommand represents a request to add a discount
type AddDiscountCommand struct {
	Code                    string     `json:"code"`
	DiscountType            string     `json:"discountType" binding:"required,discount_type"`
	Value                   float64    `json:"value" binding:"gte=0"`
	MaxDiscountAmount       *float64   `json:"maxDiscountAmount" binding:"omitempty,gte=0"`
	MinOrderValue           float64    `json:"minOrderValue" binding:"gte=0"`
	ApplicableServiceTypes  []string   `json:"applicableServiceTypes" binding:"required,min=1,dive,service_type"`
	ApplicableCustomerTypes []string   `json:"applicableCustomerTypes" binding:"required,min=1,dive,customer_type"`
	StartDate               time.Time  `json:"startDate"`
	EndDate                 *time.Time `json:"endDate"`
	UsageLimit              *int       `json:"usageLimit" binding:"omitempty,gt=0"`
}

// ListRulesQuery represents filter and pagination options for listing rules
type ListRulesQuery struct {
	ServiceType     string
	PricingType     string
	CustomerType    string
	IsActive        *bool
	Branch          string
	OriginCity      string
	DestinationCity string
	EffectiveOn     *time.Time
	Page            int64
	PageSize        int64
}

// AreaDTO represents an administrative region in responses
type AreaDTO struct {
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district,omitempty"`
}

// TierDTO represents a pricing tier in responses
type TierDTO struct {
	Min          float64  `json:"min"`
	Max          *float64 `json:"max,omitempty"`
	PricePerUnit float64  `json:"pricePerUnit"`
	FlatPrice    float64  `json:"flatPrice"`
}

// SpecialServiceDTO represents a surcharge option in responses
type SpecialServiceDTO struct {
	Code                   string   `json:"code"`
	Name                   string   `json:"name"`
	Price                  float64  `json:"price"`
	IsPercentage           bool     `json:"isPercentage"`
	ApplicableServiceTypes []string `json:"applicableServiceTypes"`
}

// DiscountDTO represents a discount in responses
type DiscountDTO struct {
	ID                      string     `json:"id"`
	Code                    string     `json:"code,omitempty"`
	DiscountType            string     `json:"discountType"`
	Value                   float64    `json:"value"`
	MaxDiscountAmount       *float64   `json:"maxDiscountAmount,omitempty"`
	MinOrderValue           float64    `json:"minOrderValue"`
	ApplicableServiceTypes  []string   `json:"applicableServiceTypes"`
	ApplicableCustomerTypes []string   `json:"applicableCustomerTypes"`
	StartDate               time.Time  `json:"startDate"`
	EndDate                 *time.Time `json:"endDate,omitempty"`
	UsageLimit              *int       `json:"usageLimit,omitempty"`
	UsageCount              int        `json:"usageCount"`
	IsActive                bool       `json:"isActive"`
}

// RuleDTO represents a pricing rule in responses
type RuleDTO struct {
	ID                  string              `json:"id"`
	Code                string              `json:"code"`
	Name                string              `json:"name"`
	ServiceType         string              `json:"serviceType"`
	PricingType         string              `json:"pricingType"`
	Origin              AreaDTO             `json:"origin"`
	Destination         AreaDTO             `json:"destination"`
	CustomerTypes       []string            `json:"customerTypes"`
	Branch              string              `json:"branch,omitempty"`
	BasePrice           float64             `json:"basePrice"`
	MinimumPrice        float64             `json:"minimumPrice"`
	VolumetricDivisor   float64             `json:"volumetricDivisor"`
	WeightTiers         []TierDTO           `json:"weightTiers"`
	DistanceTiers       []TierDTO           `json:"distanceTiers"`
	SpecialServices     []SpecialServiceDTO `json:"specialServices"`
	Discounts           []DiscountDTO       `json:"discounts"`
	TaxPercentage       float64             `json:"taxPercentage"`
	InsurancePercentage float64             `json:"insurancePercentage"`
	EffectiveDate       time.Time           `json:"effectiveDate"`
	ExpiryDate          *time.Time          `json:"expiryDate,omitempty"`
	Priority            int                 `json:"priority"`
	IsActive            bool                `json:"isActive"`
	Version             int64               `json:"version"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// AppliedRuleDTO identifies the rule a breakdown was priced under
type AppliedRuleDTO struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	ServiceType string `json:"serviceType"`
	PricingType string `json:"pricingType"`
}

// AppliedDiscountDTO identifies the discount chosen for a breakdown
type AppliedDiscountDTO struct {
	ID           string  `json:"id"`
	Code         string  `json:"code,omitempty"`
	DiscountType string  `json:"discountType"`
	Value        float64 `json:"value"`
	Amount       float64 `json:"amount"`
}

// PriceBreakdownDTO represents an itemized quote in responses
type PriceBreakdownDTO struct {
	BaseRate           float64             `json:"baseRate"`
	AdditionalServices float64             `json:"additionalServices"`
	Insurance          float64             `json:"insurance"`
	Subtotal           float64             `json:"subtotal"`
	Discount           float64             `json:"discount"`
	Tax                float64             `json:"tax"`
	Total              float64             `json:"total"`
	ChargeableWeight   float64             `json:"chargeableWeight"`
	ActualWeight       float64             `json:"actualWeight"`
	VolumetricWeight   float64             `json:"volumetricWeight"`
	AppliedRule        AppliedRuleDTO      `json:"appliedRule"`
	AppliedDiscount    *AppliedDiscountDTO `json:"appliedDiscount,omitempty"`
}

// ToRuleDTO converts a domain rule to its DTO
func ToRuleDTO(rule *domain.PricingRule) *RuleDTO {
	return &RuleDTO{
		ID:                  rule.ID.Hex(),
		Code:                rule.Code,
		Name:                rule.Name,
		ServiceType:         string(rule.ServiceType),
		PricingType:         string(rule.PricingType),
		Origin:              toAreaDTO(rule.OriginArea),
		Destination:         toAreaDTO(rule.DestinationArea),
		CustomerTypes:       customerTypeStrings(rule.ApplicableCustomerTypes),
		Branch:              rule.Branch,
		BasePrice:           rule.BasePrice,
		MinimumPrice:        rule.MinimumPrice,
		VolumetricDivisor:   rule.VolumetricDivisor,
		WeightTiers:         toTierDTOs(rule.WeightTiers),
		DistanceTiers:       toTierDTOs(rule.DistanceTiers),
		SpecialServices:     toSpecialServiceDTOs(rule.SpecialServices),
		Discounts:           toDiscountDTOs(rule.Discounts),
		TaxPercentage:       rule.TaxPercentage,
		InsurancePercentage: rule.InsurancePercentage,
		EffectiveDate:       rule.EffectiveDate,
		ExpiryDate:          rule.ExpiryDate,
		Priority:            rule.Priority,
		IsActive:            rule.IsActive,
		Version:             rule.Version,
		CreatedAt:           rule.CreatedAt,
		UpdatedAt:           rule.UpdatedAt,
	}
}

// ToRuleDTOs converts a slice of domain rules to DTOs
func ToRuleDTOs(rules []*domain.PricingRule) []RuleDTO {
	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = *ToRuleDTO(rule)
	}
	return dtos
}

// ToPriceBreakdownDTO converts a domain breakdown to its DTO
func ToPriceBreakdownDTO(breakdown *domain.PriceBreakdown) *PriceBreakdownDTO {
	dto := &PriceBreakdownDTO{
		BaseRate:           breakdown.BaseRate,
		AdditionalServices: breakdown.AdditionalServices,
		Insurance:          breakdown.Insurance,
		Subtotal:           breakdown.Subtotal,
		Discount:           breakdown.Discount,
		Tax:                breakdown.Tax,
		Total:              breakdown.Total,
		ChargeableWeight:   breakdown.ChargeableWeight,
		ActualWeight:       breakdown.ActualWeight,
		VolumetricWeight:   breakdown.VolumetricWeight,
		AppliedRule: AppliedRuleDTO{
			Code:        breakdown.AppliedRule.Code,
			Name:        breakdown.AppliedRule.Name,
			ServiceType: string(breakdown.AppliedRule.ServiceType),
			PricingType: string(breakdown.AppliedRule.PricingType),
		},
	}

	if breakdown.AppliedDiscount != nil {
		dto.AppliedDiscount = &AppliedDiscountDTO{
			ID:           breakdown.AppliedDiscount.ID,
			Code:         breakdown.AppliedDiscount.Code,
			DiscountType: string(breakdown.AppliedDiscount.DiscountType),
			Value:        breakdown.AppliedDiscount.Value,
			Amount:       breakdown.AppliedDiscount.Amount,
		}
	}

	return dto
}

func toAreaDTO(area domain.Area) AreaDTO {
	return AreaDTO{
		Province: area.Province,
		City:     area.City,
		District: area.District,
	}
}

func toTierDTOs(tiers []domain.Tier) []TierDTO {
	dtos := make([]TierDTO, len(tiers))
	for i, t := range tiers {
		dtos[i] = TierDTO{
			Min:          t.Min,
			Max:          t.Max,
			PricePerUnit: t.PricePerUnit,
			FlatPrice:    t.FlatPrice,
		}
	}
	return dtos
}

func toSpecialServiceDTOs(services []domain.SpecialService) []SpecialServiceDTO {
	dtos := make([]SpecialServiceDTO, len(services))
	for i, s := range services {
		dtos[i] = SpecialServiceDTO{
			Code:                   s.Code,
			Name:                   s.Name,
			Price:                  s.Price,
			IsPercentage:           s.IsPercentage,
			ApplicableServiceTypes: serviceTypeStrings(s.ApplicableServiceTypes),
		}
	}
	return dtos
}

func toDiscountDTOs(discounts []domain.Discount) []DiscountDTO {
	dtos := make([]DiscountDTO, len(discounts))
	for i, d := range discounts {
		dtos[i] = DiscountDTO{
			ID:                      d.ID,
			Code:                    d.Code,
			DiscountType:            string(d.DiscountType),
			Value:                   d.Value,
			MaxDiscountAmount:       d.MaxDiscountAmount,
			MinOrderValue:           d.MinOrderValue,
			ApplicableServiceTypes:  serviceTypeStrings(d.ApplicableServiceTypes),
			ApplicableCustomerTypes: customerTypeStrings(d.ApplicableCustomerTypes),
			StartDate:               d.StartDate,
			EndDate:                 d.EndDate,
			UsageLimit:              d.UsageLimit,
			UsageCount:              d.UsageCount,
			IsActive:                d.IsActive,
		}
	}
	return dtos
}

func toDomainArea(in AreaInput) domain.Area {
	return domain.Area{
		Province: in.Province,
		City:     in.City,
		District: in.District,
	}
}

func toServiceTypes(values []string) []domain.ServiceType {
	types := make([]domain.ServiceType, len(values))
	for i, v := range values {
		types[i] = domain.ServiceType(v)
	}
	return types
}

func toCustomerTypes(values []string) []domain.CustomerType {
	types := make([]domain.CustomerType, len(values))
	for i, v := range values {
		types[i] = domain.CustomerType(v)
	}
	return types
}

func serviceTypeStrings(types []domain.ServiceType) []string {
	values := make([]string, len(types))
	for i, t := range types {
		values[i] = string(t)
	}
	return values
}

func customerTypeStrings(types []domain.CustomerType) []string {
	values := make([]string, len(types))
	for i, t := range types {
		values[i] = string(t)
	}
	return values
}
