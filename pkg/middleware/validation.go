package middleware

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InitValidator registers the pricing domain validators on a shared
// instance and on Gin's binding validator, so `binding:"..."` tags and
// explicit validation behave the same.
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		registerPricingValidators(validate)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerPricingValidators(v)
		}
	})

	return validate
}

func registerPricingValidators(v *validator.Validate) {
	_ = v.RegisterValidation("rule_code", validateRuleCode)
	_ = v.RegisterValidation("service_type", validateServiceType)
	_ = v.RegisterValidation("customer_type", validateCustomerType)
	_ = v.RegisterValidation("pricing_type", validatePricingType)
	_ = v.RegisterValidation("discount_type", validateDiscountType)
	_ = v.RegisterValidation("safe_string", validateSafeString)

	// Error messages should name the JSON field the client sent, not
	// the Go struct field.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}

// Custom validators

var (
	ruleCodeRegex   = regexp.MustCompile(`^PR-\d{8}-\d{3,}$`)
	safeStringRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.,!?@#$%&*()+=:;'"<>\/\[\]{}|\\~\x60]+$`)
)

func validateRuleCode(fl validator.FieldLevel) bool {
	return ruleCodeRegex.MatchString(fl.Field().String())
}

func validateServiceType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	validServiceTypes := map[string]bool{
		"regular":  true,
		"express":  true,
		"same_day": true,
		"next_day": true,
		"economy":  true,
	}
	return validServiceTypes[value]
}

func validateCustomerType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	validCustomerTypes := map[string]bool{
		"regular":   true,
		"corporate": true,
		"vip":       true,
	}
	return validCustomerTypes[value]
}

func validatePricingType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	validPricingTypes := map[string]bool{
		"weight":   true,
		"distance": true,
		"flat":     true,
		"combined": true,
	}
	return validPricingTypes[value]
}

func validateDiscountType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	validDiscountTypes := map[string]bool{
		"percentage":   true,
		"fixed":        true,
		"free_service": true,
	}
	return validDiscountTypes[value]
}

func validateSafeString(fl validator.FieldLevel) bool {
	return safeStringRegex.MatchString(fl.Field().String())
}

func formatValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = formatValidationError(e)
	}
	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "rule_code":
		return "must be a valid rule code (format: PR-YYYYMMDD-NNN)"
	case "service_type":
		return "must be one of: regular, express, same_day, next_day, economy"
	case "customer_type":
		return "must be one of: regular, corporate, vip"
	case "pricing_type":
		return "must be one of: weight, distance, flat, combined"
	case "discount_type":
		return "must be one of: percentage, fixed, free_service"
	case "safe_string":
		return "contains invalid characters"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate binds the JSON body into obj and translates binding
// failures into the standard validation error shape.
func BindAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	if err := c.ShouldBindJSON(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return errors.ErrValidationWithFields("validation failed", formatValidationErrors(validationErrors))
		}
		return errors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

func sanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// InputSanitizer strips null bytes and surrounding whitespace from
// query parameters before handlers read them.
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = sanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType rejects mutating requests whose body is not JSON.
// Requests with an empty body pass, some operations take none.
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case "POST", "PUT", "PATCH":
			contentType := c.GetHeader("Content-Type")
			if (contentType == "" || !strings.HasPrefix(contentType, "application/json")) && c.Request.ContentLength > 0 {
				AbortWithAppError(c, &errors.AppError{
					Code:       "INVALID_CONTENT_TYPE",
					Message:    "Content-Type must be application/json",
					HTTPStatus: 415,
				})
				return
			}
		}
		c.Next()
	}
}
