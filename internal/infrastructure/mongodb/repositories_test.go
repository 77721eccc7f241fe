package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/domain"
)

func TestBuildRuleFilter(t *testing.T) {
	serviceType := domain.ServiceTypeRegular
	customerType := domain.CustomerTypeCorporate
	active := true
	branch := "BDG"

	filter := domain.RuleFilter{
		ServiceType:  &serviceType,
		CustomerType: &customerType,
		IsActive:     &active,
		Branch:       &branch,
	}

	mongoFilter := buildRuleFilter(filter)
	assert.Equal(t, serviceType, mongoFilter["serviceType"])
	assert.Equal(t, customerType, mongoFilter["applicableCustomerTypes"])
	assert.Equal(t, active, mongoFilter["isActive"])
	assert.Equal(t, branch, mongoFilter["branch"])
	assert.NotContains(t, mongoFilter, "pricingType")
}

func TestBuildRuleFilterEffectiveOn(t *testing.T) {
	effectiveOn := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mongoFilter := buildRuleFilter(domain.RuleFilter{EffectiveOn: &effectiveOn})

	assert.Equal(t, bson.M{"$lte": effectiveOn}, mongoFilter["effectiveDate"])
	assert.Equal(t, []bson.M{
		{"expiryDate": nil},
		{"expiryDate": bson.M{"$gte": effectiveOn}},
	}, mongoFilter["$or"])
}

func TestBuildRuleFilterEmpty(t *testing.T) {
	mongoFilter := buildRuleFilter(domain.RuleFilter{})
	assert.Empty(t, mongoFilter)
}
