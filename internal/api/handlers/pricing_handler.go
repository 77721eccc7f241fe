package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/application"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/api"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/errors"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/middleware"
)

// PricingHandler handles HTTP requests for shipment pricing
type PricingHandler struct {
	service         *application.PricingService
	logger          *logging.Logger
	businessMetrics *middleware.BusinessMetrics
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(service *application.PricingService, logger *logging.Logger, businessMetrics *middleware.BusinessMetrics) *PricingHandler {
	return &PricingHandler{
		service:         service,
		logger:          logger,
		businessMetrics: businessMetrics,
	}
}

// CalculatePrice handles POST /api/v1/pricing/calculate
func (h *PricingHandler) CalculatePrice(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CalculatePriceCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	// Requests without an explicit branch are priced for the caller's branch
	if cmd.Branch == "" {
		if bc := middleware.GetBranchContext(c); bc != nil && bc.HasBranch() {
			cmd.Branch = bc.BranchID
		}
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"pricing.service_type":     cmd.ServiceType,
		"pricing.origin_city":      cmd.Origin.City,
		"pricing.destination_city": cmd.Destination.City,
		"pricing.weight":           cmd.Weight,
	})

	started := time.Now()
	result, err := h.service.CalculatePrice(c.Request.Context(), cmd)
	h.businessMetrics.RecordPriceCalculation(cmd.ServiceType, err == nil, time.Since(started))
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	h.businessMetrics.RecordRuleMatched(result.AppliedRule.PricingType)
	if result.AppliedDiscount != nil {
		h.businessMetrics.RecordDiscountApplied(result.AppliedDiscount.DiscountType)
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// FindApplicableRules handles GET /api/v1/pricing/rules/applicable
func (h *PricingHandler) FindApplicableRules(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.FindApplicableRulesQuery{
		ServiceType:  c.Query("serviceType"),
		CustomerType: c.Query("customerType"),
		Branch:       c.Query("branch"),
		Origin: application.AreaInput{
			Province: c.Query("originProvince"),
			City:     c.Query("originCity"),
			District: c.Query("originDistrict"),
		},
		Destination: application.AreaInput{
			Province: c.Query("destinationProvince"),
			City:     c.Query("destinationCity"),
			District: c.Query("destinationDistrict"),
		},
	}

	if query.Branch == "" {
		if bc := middleware.GetBranchContext(c); bc != nil && bc.HasBranch() {
			query.Branch = bc.BranchID
		}
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"pricing.service_type":     query.ServiceType,
		"pricing.origin_city":      query.Origin.City,
		"pricing.destination_city": query.Destination.City,
	})

	result, err := h.service.FindApplicableRules(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// CreateRule handles POST /api/v1/pricing/rules
func (h *PricingHandler) CreateRule(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.CreateRuleCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code":            cmd.Code,
		"pricing.service_type": cmd.ServiceType,
		"pricing.pricing_type": cmd.PricingType,
	})

	result, err := h.service.CreateRule(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	h.businessMetrics.RecordRuleCreated(result.PricingType)

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// ListRules handles GET /api/v1/pricing/rules
func (h *PricingHandler) ListRules(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	page := api.ParsePagination(c)
	query := application.ListRulesQuery{
		ServiceType:     c.Query("serviceType"),
		PricingType:     c.Query("pricingType"),
		CustomerType:    c.Query("customerType"),
		Branch:          c.Query("branch"),
		OriginCity:      c.Query("originCity"),
		DestinationCity: c.Query("destinationCity"),
		Page:            page.Page,
		PageSize:        page.PageSize,
	}

	if active := c.Query("isActive"); active != "" {
		isActive := active == "true"
		query.IsActive = &isActive
	}

	if effective := c.Query("effectiveOn"); effective != "" {
		t, err := time.Parse(time.RFC3339, effective)
		if err != nil {
			responder.RespondWithAppError(errors.ErrValidation("invalid effectiveOn format"))
			return
		}
		query.EffectiveOn = &t
	}

	result, err := h.service.ListRules(c.Request.Context(), query)
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRule handles GET /api/v1/pricing/rules/:ruleCode
func (h *PricingHandler) GetRule(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ruleCode := c.Param("ruleCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code": ruleCode,
	})

	result, err := h.service.GetRule(c.Request.Context(), ruleCode)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AddWeightTier handles POST /api/v1/pricing/rules/:ruleCode/weight-tiers
func (h *PricingHandler) AddWeightTier(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.AddTierCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	ruleCode := c.Param("ruleCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code": ruleCode,
		"tier.min":  cmd.Min,
	})

	result, err := h.service.AddWeightTier(c.Request.Context(), ruleCode, cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RemoveWeightTier handles DELETE /api/v1/pricing/rules/:ruleCode/weight-tiers
func (h *PricingHandler) RemoveWeightTier(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ruleCode := c.Param("ruleCode")
	min, ok := parseTierMin(c, responder)
	if !ok {
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code": ruleCode,
		"tier.min":  min,
	})

	result, err := h.service.RemoveWeightTier(c.Request.Context(), ruleCode, min)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AddDistanceTier handles POST /api/v1/pricing/rules/:ruleCode/distance-tiers
func (h *PricingHandler) AddDistanceTier(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.AddTierCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	ruleCode := c.Param("ruleCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code": ruleCode,
		"tier.min":  cmd.Min,
	})

	result, err := h.service.AddDistanceTier(c.Request.Context(), ruleCode, cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RemoveDistanceTier handles DELETE /api/v1/pricing/rules/:ruleCode/distance-tiers
func (h *PricingHandler) RemoveDistanceTier(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ruleCode := c.Param("ruleCode")
	min, ok := parseTierMin(c, responder)
	if !ok {
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code": ruleCode,
		"tier.min":  min,
	})

	result, err := h.service.RemoveDistanceTier(c.Request.Context(), ruleCode, min)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AddSpecialService handles POST /api/v1/pricing/rules/:ruleCode/services
func (h *PricingHandler) AddSpecialService(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.AddServiceCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	ruleCode := c.Param("ruleCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code":    ruleCode,
		"service.code": cmd.Code,
	})

	result, err := h.service.AddSpecialService(c.Request.Context(), ruleCode, cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RemoveSpecialService handles DELETE /api/v1/pricing/rules/:ruleCode/services/:serviceCode
func (h *PricingHandler) RemoveSpecialService(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ruleCode := c.Param("ruleCode")
	serviceCode := c.Param("serviceCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code":    ruleCode,
		"service.code": serviceCode,
	})

	result, err := h.service.RemoveSpecialService(c.Request.Context(), ruleCode, serviceCode)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AddDiscount handles POST /api/v1/pricing/rules/:ruleCode/discounts
func (h *PricingHandler) AddDiscount(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.AddDiscountCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	ruleCode := c.Param("ruleCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code":     ruleCode,
		"discount.type": cmd.DiscountType,
	})

	result, err := h.service.AddDiscount(c.Request.Context(), ruleCode, cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RemoveDiscount handles DELETE /api/v1/pricing/rules/:ruleCode/discounts/:discountCode
func (h *PricingHandler) RemoveDiscount(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ruleCode := c.Param("ruleCode")
	discountCode := c.Param("discountCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code":     ruleCode,
		"discount.code": discountCode,
	})

	result, err := h.service.RemoveDiscount(c.Request.Context(), ruleCode, discountCode)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ActivateRule handles PUT /api/v1/pricing/rules/:ruleCode/activate
func (h *PricingHandler) ActivateRule(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ruleCode := c.Param("ruleCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code": ruleCode,
	})

	result, err := h.service.ActivateRule(c.Request.Context(), ruleCode)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// DeactivateRule handles PUT /api/v1/pricing/rules/:ruleCode/deactivate
func (h *PricingHandler) DeactivateRule(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ruleCode := c.Param("ruleCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code": ruleCode,
	})

	result, err := h.service.DeactivateRule(c.Request.Context(), ruleCode)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RedeemDiscount handles POST /api/v1/pricing/rules/:ruleCode/discounts/:discountCode/redeem
func (h *PricingHandler) RedeemDiscount(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	ruleCode := c.Param("ruleCode")
	discountCode := c.Param("discountCode")

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rule.code":     ruleCode,
		"discount.code": discountCode,
	})

	result, err := h.service.RedeemDiscount(c.Request.Context(), ruleCode, discountCode, time.Now())
	if err != nil {
		h.businessMetrics.RecordDiscountRedemption("rejected")
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	h.businessMetrics.RecordDiscountRedemption("success")

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func parseTierMin(c *gin.Context, responder *middleware.ErrorResponder) (float64, bool) {
	raw := c.Query("min")
	if raw == "" {
		responder.RespondWithAppError(errors.ErrValidation("min query parameter is required"))
		return 0, false
	}

	min, err := strconv.ParseFloat(raw, 64)
	if err != nil || min < 0 {
		responder.RespondWithAppError(errors.ErrValidation("min query parameter must be a non-negative number"))
		return 0, false
	}

	return min, true
}
