package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

// weightRule builds a weight-tiered rule for a Jakarta-Bandung lane
func weightRule() *PricingRule {
	return &PricingRule{
		Code:        "PR-20250301-001",
		Name:        "Jakarta - Bandung Regular",
		ServiceType: ServiceTypeRegular,
		PricingType: PricingTypeWeight,
		OriginArea:  Area{Province: "DKI Jakarta", City: "Jakarta Selatan"},
		DestinationArea: Area{
			Province: "Jawa Barat", City: "Bandung",
		},
		ApplicableCustomerTypes: []CustomerType{CustomerTypeRegular, CustomerTypeCorporate},
		BasePrice:               15000,
		WeightTiers: []Tier{
			{Min: 0, Max: floatPtr(1), PricePerUnit: 10000},
			{Min: 1, Max: floatPtr(3), PricePerUnit: 9000},
			{Min: 3, PricePerUnit: 8000},
		},
		EffectiveDate: fixedNow.AddDate(0, -1, 0),
		Priority:      10,
		IsActive:      true,
	}
}

func eligibleDiscount(id string, discountType DiscountType, value float64) Discount {
	return Discount{
		ID:                      id,
		DiscountType:            discountType,
		Value:                   value,
		ApplicableServiceTypes:  []ServiceType{ServiceTypeRegular},
		ApplicableCustomerTypes: []CustomerType{CustomerTypeRegular},
		StartDate:               fixedNow.AddDate(0, -1, 0),
		IsActive:                true,
	}
}

// TestBaseRateWeightTiers tests tiered weight pricing
func TestBaseRateWeightTiers(t *testing.T) {
	calculator := NewPriceCalculator(weightRule())

	rate, err := calculator.BaseRate(2, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(18000), rate) // 2 * 9000

	rate, err = calculator.BaseRate(0.5, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(5000), rate) // 0.5 * 10000
}

// TestBaseRateExtrapolation tests that weights beyond every bounded
// band price on the last tier
func TestBaseRateExtrapolation(t *testing.T) {
	calculator := NewPriceCalculator(weightRule())

	rate, err := calculator.BaseRate(5, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(40000), rate) // 5 * 8000
}

// TestBaseRateNoTiersFallsBack tests the base price fallback when a
// weight rule has no tiers configured
func TestBaseRateNoTiersFallsBack(t *testing.T) {
	rule := weightRule()
	rule.WeightTiers = nil

	rate, err := NewPriceCalculator(rule).BaseRate(2, 0)
	require.NoError(t, err)
	assert.Equal(t, rule.BasePrice, rate)
}

// TestBaseRateFlat tests flat pricing
func TestBaseRateFlat(t *testing.T) {
	rule := weightRule()
	rule.PricingType = PricingTypeFlat
	rule.BasePrice = 25000

	rate, err := NewPriceCalculator(rule).BaseRate(2, 120)
	require.NoError(t, err)
	assert.Equal(t, float64(25000), rate)
}

// TestBaseRateDistanceTiers tests tiered distance pricing
func TestBaseRateDistanceTiers(t *testing.T) {
	rule := weightRule()
	rule.PricingType = PricingTypeDistance
	rule.DistanceTiers = []Tier{
		{Min: 0, Max: floatPtr(50), FlatPrice: 20000},
		{Min: 50, Max: floatPtr(200), FlatPrice: 10000, PricePerUnit: 150},
		{Min: 200, PricePerUnit: 200},
	}

	calculator := NewPriceCalculator(rule)

	rate, err := calculator.BaseRate(2, 30)
	require.NoError(t, err)
	assert.Equal(t, float64(20000), rate)

	rate, err = calculator.BaseRate(2, 120)
	require.NoError(t, err)
	assert.Equal(t, float64(28000), rate) // 10000 + 120 * 150
}

// TestBaseRateCombined tests that combined pricing sums the weight and
// distance results computed independently
func TestBaseRateCombined(t *testing.T) {
	rule := weightRule()
	rule.PricingType = PricingTypeCombined
	rule.DistanceTiers = []Tier{
		{Min: 0, Max: floatPtr(100), PricePerUnit: 100},
		{Min: 100, PricePerUnit: 80},
	}

	rate, err := NewPriceCalculator(rule).BaseRate(2, 60)
	require.NoError(t, err)
	assert.Equal(t, float64(24000), rate) // 2*9000 + 60*100
}

// TestBaseRatePriceFloor tests the minimum price floor
func TestBaseRatePriceFloor(t *testing.T) {
	rule := weightRule()
	rule.MinimumPrice = 7500

	rate, err := NewPriceCalculator(rule).BaseRate(0.5, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(7500), rate) // floor over 0.5 * 10000
}

// TestBaseRateUnknownPricingType tests the closed strategy set
func TestBaseRateUnknownPricingType(t *testing.T) {
	rule := weightRule()
	rule.PricingType = PricingType("hourly")

	_, err := NewPriceCalculator(rule).BaseRate(2, 0)
	assert.ErrorIs(t, err, ErrInvalidPricingType)
}

// TestSurcharges tests special service totaling
func TestSurcharges(t *testing.T) {
	rule := weightRule()
	rule.SpecialServices = []SpecialService{
		{
			Code: "PACKING", Name: "Wooden packing", Price: 5000,
			ApplicableServiceTypes: []ServiceType{ServiceTypeRegular},
		},
		{
			Code: "HANDLING", Name: "Fragile handling", Price: 10, IsPercentage: true,
			ApplicableServiceTypes: []ServiceType{ServiceTypeRegular},
		},
		{
			Code: "PRIORITY", Name: "Priority slot", Price: 20000,
			ApplicableServiceTypes: []ServiceType{ServiceTypeExpress},
		},
	}

	calculator := NewPriceCalculator(rule)

	assert.Equal(t, float64(0), calculator.Surcharges(nil, 20000))
	assert.Equal(t, float64(5000), calculator.Surcharges([]string{"PACKING"}, 20000))
	assert.Equal(t, float64(2000), calculator.Surcharges([]string{"HANDLING"}, 20000))
	assert.Equal(t, float64(7000), calculator.Surcharges([]string{"PACKING", "HANDLING"}, 20000))

	// Codes the rule does not carry contribute nothing.
	assert.Equal(t, float64(5000), calculator.Surcharges([]string{"PACKING", "UNKNOWN"}, 20000))

	// Services outside the rule's service level contribute nothing.
	assert.Equal(t, float64(0), calculator.Surcharges([]string{"PRIORITY"}, 20000))
}

// TestBestDiscountTieBreak tests that a fixed discount beats a
// percentage discount even when the percentage would reduce more
func TestBestDiscountTieBreak(t *testing.T) {
	rule := weightRule()
	rule.Discounts = []Discount{
		eligibleDiscount("DSC-pct", DiscountTypePercentage, 10),
		eligibleDiscount("DSC-fix", DiscountTypeFixed, 5000),
	}

	applied, amount := NewPriceCalculator(rule).BestDiscount(DiscountInput{
		CustomerType: CustomerTypeRegular,
		Subtotal:     50000,
	}, fixedNow)

	require.NotNil(t, applied)
	assert.Equal(t, "DSC-fix", applied.ID)
	assert.Equal(t, float64(5000), amount)
}

// TestBestDiscountHigherValueWins tests the within-type tie-break
func TestBestDiscountHigherValueWins(t *testing.T) {
	rule := weightRule()
	rule.Discounts = []Discount{
		eligibleDiscount("DSC-a", DiscountTypePercentage, 5),
		eligibleDiscount("DSC-b", DiscountTypePercentage, 15),
		eligibleDiscount("DSC-c", DiscountTypePercentage, 10),
	}

	applied, amount := NewPriceCalculator(rule).BestDiscount(DiscountInput{
		CustomerType: CustomerTypeRegular,
		Subtotal:     10000,
	}, fixedNow)

	require.NotNil(t, applied)
	assert.Equal(t, "DSC-b", applied.ID)
	assert.Equal(t, float64(1500), amount)
}

// TestBestDiscountFreeServiceRanksLast tests that a monetary discount
// is preferred over a free_service discount
func TestBestDiscountFreeServiceRanksLast(t *testing.T) {
	free := eligibleDiscount("DSC-free", DiscountTypeFreeService, 1)
	rule := weightRule()
	rule.Discounts = []Discount{free, eligibleDiscount("DSC-pct", DiscountTypePercentage, 5)}

	applied, amount := NewPriceCalculator(rule).BestDiscount(DiscountInput{
		CustomerType: CustomerTypeRegular,
		Subtotal:     10000,
	}, fixedNow)

	require.NotNil(t, applied)
	assert.Equal(t, "DSC-pct", applied.ID)
	assert.Equal(t, float64(500), amount)

	// Alone, a free_service discount is chosen but reduces nothing.
	rule.Discounts = []Discount{free}
	applied, amount = NewPriceCalculator(rule).BestDiscount(DiscountInput{
		CustomerType: CustomerTypeRegular,
		Subtotal:     10000,
	}, fixedNow)
	require.NotNil(t, applied)
	assert.Equal(t, "DSC-free", applied.ID)
	assert.Equal(t, float64(0), amount)
}

// TestDiscountEligibility tests every eligibility condition
func TestDiscountEligibility(t *testing.T) {
	base := DiscountInput{CustomerType: CustomerTypeRegular, Subtotal: 50000}

	tests := []struct {
		name     string
		mutate   func(d *Discount)
		input    DiscountInput
		eligible bool
	}{
		{
			name:     "Baseline is eligible",
			mutate:   func(d *Discount) {},
			input:    base,
			eligible: true,
		},
		{
			name:     "Inactive",
			mutate:   func(d *Discount) { d.IsActive = false },
			input:    base,
			eligible: false,
		},
		{
			name:     "Not yet started",
			mutate:   func(d *Discount) { d.StartDate = fixedNow.AddDate(0, 0, 1) },
			input:    base,
			eligible: false,
		},
		{
			name:     "Already ended",
			mutate:   func(d *Discount) { d.EndDate = timePtr(fixedNow.AddDate(0, 0, -1)) },
			input:    base,
			eligible: false,
		},
		{
			name:     "End date exactly now still eligible",
			mutate:   func(d *Discount) { d.EndDate = timePtr(fixedNow) },
			input:    base,
			eligible: true,
		},
		{
			name:     "Start date exactly now is eligible",
			mutate:   func(d *Discount) { d.StartDate = fixedNow },
			input:    base,
			eligible: true,
		},
		{
			name: "Usage limit exhausted",
			mutate: func(d *Discount) {
				d.UsageLimit = intPtr(100)
				d.UsageCount = 100
			},
			input:    base,
			eligible: false,
		},
		{
			name: "Usage below limit",
			mutate: func(d *Discount) {
				d.UsageLimit = intPtr(100)
				d.UsageCount = 99
			},
			input:    base,
			eligible: true,
		},
		{
			name:     "Subtotal below minimum order value",
			mutate:   func(d *Discount) { d.MinOrderValue = 60000 },
			input:    base,
			eligible: false,
		},
		{
			name:     "Subtotal exactly at minimum order value",
			mutate:   func(d *Discount) { d.MinOrderValue = 50000 },
			input:    base,
			eligible: true,
		},
		{
			name:     "Customer type not covered",
			mutate:   func(d *Discount) { d.ApplicableCustomerTypes = []CustomerType{CustomerTypeCorporate} },
			input:    base,
			eligible: false,
		},
		{
			name:     "Service type not covered",
			mutate:   func(d *Discount) { d.ApplicableServiceTypes = []ServiceType{ServiceTypeExpress} },
			input:    base,
			eligible: false,
		},
		{
			name:     "Coded discount without supplied code",
			mutate:   func(d *Discount) { d.Code = "HEMAT10" },
			input:    base,
			eligible: false,
		},
		{
			name:   "Coded discount with wrong code",
			mutate: func(d *Discount) { d.Code = "HEMAT10" },
			input: DiscountInput{
				DiscountCode: "LAIN20", CustomerType: CustomerTypeRegular, Subtotal: 50000,
			},
			eligible: false,
		},
		{
			name:   "Coded discount with matching code",
			mutate: func(d *Discount) { d.Code = "HEMAT10" },
			input: DiscountInput{
				DiscountCode: "HEMAT10", CustomerType: CustomerTypeRegular, Subtotal: 50000,
			},
			eligible: true,
		},
		{
			name:   "Codeless discount ignores supplied code",
			mutate: func(d *Discount) {},
			input: DiscountInput{
				DiscountCode: "HEMAT10", CustomerType: CustomerTypeRegular, Subtotal: 50000,
			},
			eligible: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount := eligibleDiscount("DSC-1", DiscountTypePercentage, 10)
			tt.mutate(&discount)
			assert.Equal(t, tt.eligible, discount.Eligible(ServiceTypeRegular, tt.input, fixedNow))
		})
	}
}

// TestDiscountAmountPercentageCap tests the maxDiscountAmount cap
func TestDiscountAmountPercentageCap(t *testing.T) {
	discount := eligibleDiscount("DSC-1", DiscountTypePercentage, 10)
	assert.Equal(t, float64(5000), discount.Amount(50000))

	discount.MaxDiscountAmount = floatPtr(3000)
	assert.Equal(t, float64(3000), discount.Amount(50000))
}

// TestDiscountAmountFixedCap tests that a fixed discount never exceeds
// the subtotal
func TestDiscountAmountFixedCap(t *testing.T) {
	discount := eligibleDiscount("DSC-1", DiscountTypeFixed, 5000)
	assert.Equal(t, float64(5000), discount.Amount(50000))
	assert.Equal(t, float64(2000), discount.Amount(2000))
}

// TestCalculateAssembly tests the full breakdown sequence with a
// surcharge, a percentage discount, and tax
func TestCalculateAssembly(t *testing.T) {
	rule := weightRule()
	rule.PricingType = PricingTypeFlat
	rule.BasePrice = 28000
	rule.TaxPercentage = 10
	rule.SpecialServices = []SpecialService{
		{
			Code: "PACKING", Name: "Wooden packing", Price: 5000,
			ApplicableServiceTypes: []ServiceType{ServiceTypeRegular},
		},
	}
	rule.Discounts = []Discount{eligibleDiscount("DSC-1", DiscountTypePercentage, 10)}

	breakdown, err := NewPriceCalculator(rule).Calculate(&PriceRequest{
		Weight:               2,
		SelectedServiceCodes: []string{"PACKING"},
		CustomerType:         CustomerTypeRegular,
	}, fixedNow)

	require.NoError(t, err)
	assert.Equal(t, float64(28000), breakdown.BaseRate)
	assert.Equal(t, float64(5000), breakdown.AdditionalServices)
	assert.Equal(t, float64(0), breakdown.Insurance)
	assert.Equal(t, float64(33000), breakdown.Subtotal)
	assert.Equal(t, float64(3300), breakdown.Discount)
	assert.Equal(t, float64(2970), breakdown.Tax)
	assert.Equal(t, float64(32670), breakdown.Total)

	require.NotNil(t, breakdown.AppliedDiscount)
	assert.Equal(t, "DSC-1", breakdown.AppliedDiscount.ID)
	assert.Equal(t, float64(3300), breakdown.AppliedDiscount.Amount)

	assert.Equal(t, rule.Code, breakdown.AppliedRule.Code)
	assert.Equal(t, rule.Name, breakdown.AppliedRule.Name)
	assert.Equal(t, rule.ServiceType, breakdown.AppliedRule.ServiceType)
}

// TestCalculateInsurance tests insurance on declared value
func TestCalculateInsurance(t *testing.T) {
	rule := weightRule()
	rule.InsurancePercentage = 0.2

	breakdown, err := NewPriceCalculator(rule).Calculate(&PriceRequest{
		Weight:        2,
		DeclaredValue: 1000000,
	}, fixedNow)

	require.NoError(t, err)
	assert.Equal(t, float64(2000), breakdown.Insurance) // 1000000 * 0.2%
	assert.Equal(t, float64(20000), breakdown.Subtotal) // 18000 + 2000
}

// TestCalculateChargeableWeight tests that the greater of actual and
// volumetric weight drives the tier lookup
func TestCalculateChargeableWeight(t *testing.T) {
	calculator := NewPriceCalculator(weightRule())

	breakdown, err := calculator.Calculate(&PriceRequest{
		Weight:           2,
		VolumetricWeight: 4,
	}, fixedNow)

	require.NoError(t, err)
	assert.Equal(t, float64(4), breakdown.ChargeableWeight)
	assert.Equal(t, float64(2), breakdown.ActualWeight)
	assert.Equal(t, float64(4), breakdown.VolumetricWeight)
	assert.Equal(t, float64(32000), breakdown.BaseRate) // 4 * 8000

	breakdown, err = calculator.Calculate(&PriceRequest{
		Weight:           2,
		VolumetricWeight: 1.5,
	}, fixedNow)

	require.NoError(t, err)
	assert.Equal(t, float64(2), breakdown.ChargeableWeight)
	assert.Equal(t, float64(18000), breakdown.BaseRate)
}

// TestCalculateNoDiscount tests a breakdown without any eligible discount
func TestCalculateNoDiscount(t *testing.T) {
	breakdown, err := NewPriceCalculator(weightRule()).Calculate(&PriceRequest{
		Weight: 2,
	}, fixedNow)

	require.NoError(t, err)
	assert.Equal(t, float64(0), breakdown.Discount)
	assert.Nil(t, breakdown.AppliedDiscount)
	assert.Equal(t, breakdown.Subtotal, breakdown.Total) // no tax configured
}

// TestCalculateDeterminism tests that repeated calculation with the
// same snapshot, request, and time is identical
func TestCalculateDeterminism(t *testing.T) {
	rule := weightRule()
	rule.TaxPercentage = 11
	rule.InsurancePercentage = 0.2
	rule.Discounts = []Discount{eligibleDiscount("DSC-1", DiscountTypePercentage, 10)}

	request := &PriceRequest{
		Weight:        2.5,
		Distance:      140,
		DeclaredValue: 500000,
		CustomerType:  CustomerTypeRegular,
	}

	calculator := NewPriceCalculator(rule)
	first, err := calculator.Calculate(request, fixedNow)
	require.NoError(t, err)
	second, err := calculator.Calculate(request, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestCalculateRequestValidation tests the request boundary checks
func TestCalculateRequestValidation(t *testing.T) {
	tests := []struct {
		name        string
		request     PriceRequest
		expectError error
	}{
		{
			name:        "Zero weight",
			request:     PriceRequest{Weight: 0},
			expectError: ErrInvalidWeight,
		},
		{
			name:        "Negative weight",
			request:     PriceRequest{Weight: -2},
			expectError: ErrInvalidWeight,
		},
		{
			name:        "Negative distance",
			request:     PriceRequest{Weight: 2, Distance: -1},
			expectError: ErrInvalidDistance,
		},
		{
			name:        "Negative volumetric weight",
			request:     PriceRequest{Weight: 2, VolumetricWeight: -1},
			expectError: ErrInvalidVolumetricWeight,
		},
		{
			name:        "Negative declared value",
			request:     PriceRequest{Weight: 2, DeclaredValue: -1},
			expectError: ErrInvalidDeclaredValue,
		},
		{
			name:        "Unknown customer type",
			request:     PriceRequest{Weight: 2, CustomerType: CustomerType("guest")},
			expectError: ErrInvalidCustomerType,
		},
	}

	calculator := NewPriceCalculator(weightRule())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown, err := calculator.Calculate(&tt.request, fixedNow)
			assert.ErrorIs(t, err, tt.expectError)
			assert.Nil(t, breakdown)
		})
	}
}

// BenchmarkCalculate benchmarks a full breakdown
func BenchmarkCalculate(b *testing.B) {
	rule := weightRule()
	rule.TaxPercentage = 11
	rule.Discounts = []Discount{eligibleDiscount("DSC-1", DiscountTypePercentage, 10)}
	calculator := NewPriceCalculator(rule)
	request := &PriceRequest{Weight: 2.5, Distance: 140, CustomerType: CustomerTypeRegular}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		calculator.Calculate(request, fixedNow)
	}
}

// BenchmarkResolveTier benchmarks tier lookup
func BenchmarkResolveTier(b *testing.B) {
	tiers := weightRule().WeightTiers

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ResolveTier(tiers, 2.5)
	}
}
