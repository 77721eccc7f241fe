// Package application contains the pricing service use cases. It
// orchestrates the domain layer against the repositories and converts
// between transport commands and domain types.
package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/domain"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/api"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/errors"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/resilience"
)

// saveRetryConfig bounds the optimistic retry loop on rule updates.
// Only a version conflict retries; every other error surfaces at once.
var saveRetryConfig = &resilience.RetryConfig{
	MaxAttempts:   3,
	InitialDelay:  10 * time.Millisecond,
	MaxDelay:      100 * time.Millisecond,
	BackoffFactor: 2.0,
	RetryableErrors: func(err error) bool {
		return stderrors.Is(err, domain.ErrVersionConflict)
	},
}

// PricingService orchestrates price quoting and rule management
type PricingService struct {
	ruleRepo domain.PricingRuleRepository
	seqRepo  domain.RuleSequenceRepository
	logger   *logging.Logger
}

// NewPricingService creates a new pricing service
func NewPricingService(
	ruleRepo domain.PricingRuleRepository,
	seqRepo domain.RuleSequenceRepository,
	logger *logging.Logger,
) *PricingService {
	return &PricingService{
		ruleRepo: ruleRepo,
		seqRepo:  seqRepo,
		logger:   logger,
	}
}

// CalculatePrice produces an itemized quote for a shipment. The quote
// is side-effect free: discount usage is only consumed when a shipment
// is actually created, via RedeemDiscount.
func (s *PricingService) CalculatePrice(ctx context.Context, cmd CalculatePriceCommand) (*PriceBreakdownDTO, error) {
	started := time.Now()

	criteria := domain.RuleCriteria{
		ServiceType:     domain.ServiceType(cmd.ServiceType),
		OriginArea:      toDomainArea(cmd.Origin),
		DestinationArea: toDomainArea(cmd.Destination),
		CustomerType:    domain.CustomerType(cmd.CustomerType),
		Branch:          cmd.Branch,
	}
	if err := criteria.Validate(); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	now := time.Now().UTC()

	candidates, err := s.ruleRepo.FindCandidates(ctx, criteria, now)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load candidate rules",
			"serviceType", cmd.ServiceType,
			"originCity", cmd.Origin.City,
			"destinationCity", cmd.Destination.City,
		)
		return nil, fmt.Errorf("failed to find candidate rules: %w", err)
	}

	matched := domain.SelectApplicableRules(candidates, criteria, now)
	if len(matched) == 0 {
		s.logger.PriceCalculation(ctx, "", cmd.ServiceType, 0, time.Since(started), false)
		return nil, errors.ErrNotApplicable(domain.ErrNoApplicableRule.Error())
	}
	rule := matched[0]

	volumetricWeight := cmd.VolumetricWeight
	if volumetricWeight == 0 && cmd.Dimensions != nil {
		volumetricWeight = rule.VolumetricWeightFor(
			cmd.Dimensions.Length, cmd.Dimensions.Width, cmd.Dimensions.Height)
	}

	request := &domain.PriceRequest{
		Weight:               cmd.Weight,
		Distance:             cmd.Distance,
		VolumetricWeight:     volumetricWeight,
		SelectedServiceCodes: cmd.SelectedServices,
		DiscountCode:         cmd.DiscountCode,
		CustomerType:         domain.CustomerType(cmd.CustomerType),
		DeclaredValue:        cmd.DeclaredValue,
	}

	breakdown, err := domain.NewPriceCalculator(rule).Calculate(request, now)
	if err != nil {
		s.logger.PriceCalculation(ctx, rule.Code, string(rule.ServiceType), 0, time.Since(started), false)
		return nil, errors.MapDomainError(err)
	}

	s.logger.PriceCalculation(ctx, rule.Code, string(rule.ServiceType), breakdown.Total, time.Since(started), true)
	return ToPriceBreakdownDTO(breakdown), nil
}

// FindApplicableRules returns the rules matching the given criteria,
// ordered by priority descending then code ascending. An empty result
// is not an error.
func (s *PricingService) FindApplicableRules(ctx context.Context, query FindApplicableRulesQuery) ([]RuleDTO, error) {
	criteria := domain.RuleCriteria{
		ServiceType:     domain.ServiceType(query.ServiceType),
		OriginArea:      toDomainArea(query.Origin),
		DestinationArea: toDomainArea(query.Destination),
		CustomerType:    domain.CustomerType(query.CustomerType),
		Branch:          query.Branch,
	}
	if err := criteria.Validate(); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	now := time.Now().UTC()

	candidates, err := s.ruleRepo.FindCandidates(ctx, criteria, now)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load candidate rules",
			"serviceType", query.ServiceType,
			"originCity", query.Origin.City,
			"destinationCity", query.Destination.City,
		)
		return nil, fmt.Errorf("failed to find candidate rules: %w", err)
	}

	return ToRuleDTOs(domain.SelectApplicableRules(candidates, criteria, now)), nil
}

// CreateRule creates a new pricing rule. When the command carries no
// code, the next code for today is allocated from the day sequence.
func (s *PricingService) CreateRule(ctx context.Context, cmd CreateRuleCommand) (*RuleDTO, error) {
	now := time.Now().UTC()

	code := cmd.Code
	if code == "" {
		allocated, err := s.allocateRuleCode(ctx, now)
		if err != nil {
			s.logger.WithError(err).Error("Failed to allocate rule code")
			return nil, err
		}
		code = allocated
	}

	rule, err := domain.NewPricingRule(domain.RuleDraft{
		Code:                    code,
		Name:                    cmd.Name,
		ServiceType:             domain.ServiceType(cmd.ServiceType),
		PricingType:             domain.PricingType(cmd.PricingType),
		OriginArea:              toDomainArea(cmd.Origin),
		DestinationArea:         toDomainArea(cmd.Destination),
		ApplicableCustomerTypes: toCustomerTypes(cmd.CustomerTypes),
		Branch:                  cmd.Branch,
		BasePrice:               cmd.BasePrice,
		MinimumPrice:            cmd.MinimumPrice,
		VolumetricDivisor:       cmd.VolumetricDivisor,
		TaxPercentage:           cmd.TaxPercentage,
		InsurancePercentage:     cmd.InsurancePercentage,
		EffectiveDate:           cmd.EffectiveDate,
		ExpiryDate:              cmd.ExpiryDate,
		Priority:                cmd.Priority,
	})
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		if stderrors.Is(err, domain.ErrRuleExists) {
			return nil, errors.ErrConflict(fmt.Sprintf("pricing rule %s already exists", rule.Code))
		}
		s.logger.WithError(err).Error("Failed to save pricing rule", "ruleCode", rule.Code)
		return nil, fmt.Errorf("failed to save pricing rule: %w", err)
	}

	s.logger.RuleChange(ctx, rule.Code, "created", rule.Version)
	return ToRuleDTO(rule), nil
}

// allocateRuleCode reserves the next code for today. The per-day
// counter serializes concurrent creations; codes minted outside the
// counter are stepped over so the insert cannot collide.
func (s *PricingService) allocateRuleCode(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.seqRepo.NextSequence(ctx, now)
	if err != nil {
		return "", fmt.Errorf("failed to allocate rule sequence: %w", err)
	}

	latest, err := s.ruleRepo.LatestCodeForDate(ctx, now)
	if err != nil {
		return "", fmt.Errorf("failed to read latest rule code: %w", err)
	}
	if latest != "" {
		if _, latestSeq, perr := domain.ParseRuleCode(latest); perr == nil {
			for seq <= latestSeq {
				if seq, err = s.seqRepo.NextSequence(ctx, now); err != nil {
					return "", fmt.Errorf("failed to allocate rule sequence: %w", err)
				}
			}
		}
	}

	return domain.FormatRuleCode(now, seq), nil
}

// GetRule retrieves a rule by code
func (s *PricingService) GetRule(ctx context.Context, ruleCode string) (*RuleDTO, error) {
	rule, err := s.ruleRepo.FindByCode(ctx, ruleCode)
	if err != nil {
		s.logger.WithError(err).Error("Failed to find pricing rule", "ruleCode", ruleCode)
		return nil, fmt.Errorf("failed to find pricing rule: %w", err)
	}
	if rule == nil {
		return nil, errors.ErrNotFoundWithID("pricing rule", ruleCode)
	}

	return ToRuleDTO(rule), nil
}

// ListRules retrieves a page of rules matching the query filters
func (s *PricingService) ListRules(ctx context.Context, query ListRulesQuery) (*api.PageResponse[RuleDTO], error) {
	filter := buildRuleFilter(query)

	pagination := domain.DefaultPagination()
	if query.Page > 0 {
		pagination.Page = query.Page
	}
	if query.PageSize > 0 {
		pagination.PageSize = query.PageSize
	}

	rules, err := s.ruleRepo.List(ctx, filter, pagination)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list pricing rules")
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}

	total, err := s.ruleRepo.Count(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count pricing rules")
		return nil, fmt.Errorf("failed to count pricing rules: %w", err)
	}

	response := api.NewPageResponse(ToRuleDTOs(rules), pagination.Page, pagination.PageSize, total)
	return &response, nil
}

func buildRuleFilter(query ListRulesQuery) domain.RuleFilter {
	var filter domain.RuleFilter

	if query.ServiceType != "" {
		serviceType := domain.ServiceType(query.ServiceType)
		filter.ServiceType = &serviceType
	}
	if query.PricingType != "" {
		pricingType := domain.PricingType(query.PricingType)
		filter.PricingType = &pricingType
	}
	if query.CustomerType != "" {
		customerType := domain.CustomerType(query.CustomerType)
		filter.CustomerType = &customerType
	}
	filter.IsActive = query.IsActive
	if query.Branch != "" {
		branch := query.Branch
		filter.Branch = &branch
	}
	if query.OriginCity != "" {
		city := query.OriginCity
		filter.OriginCity = &city
	}
	if query.DestinationCity != "" {
		city := query.DestinationCity
		filter.DestinationCity = &city
	}
	filter.EffectiveOn = query.EffectiveOn

	return filter
}

// AddWeightTier adds a weight tier to a rule
func (s *PricingService) AddWeightTier(ctx context.Context, ruleCode string, cmd AddTierCommand) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.AddWeightTier(domain.Tier{
			Min:          cmd.Min,
			Max:          cmd.Max,
			PricePerUnit: cmd.PricePerUnit,
			FlatPrice:    cmd.FlatPrice,
		})
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to add weight tier", "ruleCode", ruleCode)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "weight_tier_added", rule.Version)
	return ToRuleDTO(rule), nil
}

// RemoveWeightTier removes the weight tier starting at the given minimum
func (s *PricingService) RemoveWeightTier(ctx context.Context, ruleCode string, min float64) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.RemoveWeightTier(min)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to remove weight tier", "ruleCode", ruleCode, "min", min)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "weight_tier_removed", rule.Version)
	return ToRuleDTO(rule), nil
}

// AddDistanceTier adds a distance tier to a rule
func (s *PricingService) AddDistanceTier(ctx context.Context, ruleCode string, cmd AddTierCommand) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.AddDistanceTier(domain.Tier{
			Min:          cmd.Min,
			Max:          cmd.Max,
			PricePerUnit: cmd.PricePerUnit,
			FlatPrice:    cmd.FlatPrice,
		})
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to add distance tier", "ruleCode", ruleCode)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "distance_tier_added", rule.Version)
	return ToRuleDTO(rule), nil
}

// RemoveDistanceTier removes the distance tier starting at the given minimum
func (s *PricingService) RemoveDistanceTier(ctx context.Context, ruleCode string, min float64) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.RemoveDistanceTier(min)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to remove distance tier", "ruleCode", ruleCode, "min", min)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "distance_tier_removed", rule.Version)
	return ToRuleDTO(rule), nil
}

// AddSpecialService adds a surcharge option to a rule
func (s *PricingService) AddSpecialService(ctx context.Context, ruleCode string, cmd AddServiceCommand) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.AddSpecialService(domain.SpecialService{
			Code:                   cmd.Code,
			Name:                   cmd.Name,
			Price:                  cmd.Price,
			IsPercentage:           cmd.IsPercentage,
			ApplicableServiceTypes: toServiceTypes(cmd.ApplicableServiceTypes),
		})
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to add special service", "ruleCode", ruleCode, "serviceCode", cmd.Code)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "service_added", rule.Version)
	return ToRuleDTO(rule), nil
}

// RemoveSpecialService removes a surcharge option from a rule by code
func (s *PricingService) RemoveSpecialService(ctx context.Context, ruleCode, serviceCode string) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.RemoveSpecialService(serviceCode)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to remove special service", "ruleCode", ruleCode, "serviceCode", serviceCode)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "service_removed", rule.Version)
	return ToRuleDTO(rule), nil
}

// AddDiscount adds a discount to a rule. A zero start date defaults to
// now so the discount is eligible immediately.
func (s *PricingService) AddDiscount(ctx context.Context, ruleCode string, cmd AddDiscountCommand) (*RuleDTO, error) {
	startDate := cmd.StartDate
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}

	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.AddDiscount(domain.Discount{
			Code:                    cmd.Code,
			DiscountType:            domain.DiscountType(cmd.DiscountType),
			Value:                   cmd.Value,
			MaxDiscountAmount:       cmd.MaxDiscountAmount,
			MinOrderValue:           cmd.MinOrderValue,
			ApplicableServiceTypes:  toServiceTypes(cmd.ApplicableServiceTypes),
			ApplicableCustomerTypes: toCustomerTypes(cmd.ApplicableCustomerTypes),
			StartDate:               startDate,
			EndDate:                 cmd.EndDate,
			UsageLimit:              cmd.UsageLimit,
			IsActive:                true,
		})
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to add discount", "ruleCode", ruleCode, "discountCode", cmd.Code)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "discount_added", rule.Version)
	return ToRuleDTO(rule), nil
}

// RemoveDiscount removes a discount from a rule by identifier or code
func (s *PricingService) RemoveDiscount(ctx context.Context, ruleCode, discountKey string) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.RemoveDiscount(discountKey)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to remove discount", "ruleCode", ruleCode, "discountKey", discountKey)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "discount_removed", rule.Version)
	return ToRuleDTO(rule), nil
}

// ActivateRule makes a rule eligible for matching
func (s *PricingService) ActivateRule(ctx context.Context, ruleCode string) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		r.Activate()
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to activate pricing rule", "ruleCode", ruleCode)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "activated", rule.Version)
	return ToRuleDTO(rule), nil
}

// DeactivateRule withdraws a rule from matching without deleting it
func (s *PricingService) DeactivateRule(ctx context.Context, ruleCode string) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		r.Deactivate()
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to deactivate pricing rule", "ruleCode", ruleCode)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "deactivated", rule.Version)
	return ToRuleDTO(rule), nil
}

// RedeemDiscount records one use of a discount on a rule. The version
// check on save keeps concurrent redemptions from exceeding the usage
// limit; a limit reached surfaces as a conflict.
func (s *PricingService) RedeemDiscount(ctx context.Context, ruleCode, discountKey string, now time.Time) (*RuleDTO, error) {
	rule, err := s.updateRule(ctx, ruleCode, func(r *domain.PricingRule) error {
		return r.RedeemDiscount(discountKey, now)
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to redeem discount", "ruleCode", ruleCode, "discountKey", discountKey)
		return nil, errors.MapDomainError(err)
	}

	s.logger.RuleChange(ctx, ruleCode, "discount_redeemed", rule.Version)
	return ToRuleDTO(rule), nil
}

// updateRule loads a rule, applies one mutation, and saves it under the
// version it was read at. A concurrent write surfaces as a version
// conflict and the whole read-mutate-save cycle runs again on a fresh
// snapshot, bounded by saveRetryConfig.
func (s *PricingService) updateRule(ctx context.Context, ruleCode string, mutate func(*domain.PricingRule) error) (*domain.PricingRule, error) {
	return resilience.RetryWithResult(ctx, saveRetryConfig, func() (*domain.PricingRule, error) {
		rule, err := s.ruleRepo.FindByCode(ctx, ruleCode)
		if err != nil {
			return nil, fmt.Errorf("failed to find pricing rule: %w", err)
		}
		if rule == nil {
			return nil, errors.ErrNotFoundWithID("pricing rule", ruleCode)
		}

		if err := mutate(rule); err != nil {
			return nil, err
		}

		if err := s.ruleRepo.Save(ctx, rule); err != nil {
			return nil, err
		}

		return rule, nil
	})
}
