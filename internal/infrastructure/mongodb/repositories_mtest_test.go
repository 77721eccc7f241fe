package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/domain"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/cloudevents"
	outboxMongo "github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/outbox/mongodb"
)

func newTestRule(t *testing.T, code string) *domain.PricingRule {
	t.Helper()

	rule, err := domain.NewPricingRule(domain.RuleDraft{
		Code:            code,
		Name:            "Jakarta to Bandung Regular",
		ServiceType:     domain.ServiceTypeRegular,
		PricingType:     domain.PricingTypeFlat,
		OriginArea:      domain.Area{Province: "DKI Jakarta", City: "Jakarta Selatan"},
		DestinationArea: domain.Area{Province: "Jawa Barat", City: "Bandung"},
		ApplicableCustomerTypes: []domain.CustomerType{
			domain.CustomerTypeRegular,
		},
		BasePrice: 10000,
	})
	require.NoError(t, err)
	return rule
}

func TestRepositoryConstructors(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("pricing rule", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(), // pricing_rules indexes
			mtest.CreateSuccessResponse(), // outbox indexes
		)
		repo := NewPricingRuleRepository(mt.DB, cloudevents.NewEventFactory(cloudevents.SourcePricing))
		require.NotNil(t, repo)
		require.NotNil(t, repo.GetOutboxRepository())
	})

	mt.Run("rule sequence", func(mt *mtest.T) {
		repo := NewRuleSequenceRepository(mt.DB)
		require.NotNil(t, repo)
	})
}

func TestPricingRuleRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find and count", func(mt *mtest.T) {
		coll := mt.DB.Collection("pricing_rules")
		repo := &PricingRuleRepository{
			collection:   coll,
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourcePricing),
		}
		ctx := context.Background()
		ns := coll.Database().Name() + "." + coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "code", Value: "PR-20260101-001"},
			{Key: "serviceType", Value: "regular"},
		}))
		rule, err := repo.FindByCode(ctx, "PR-20260101-001")
		require.NoError(t, err)
		require.NotNil(t, rule)
		assert.Equal(t, "PR-20260101-001", rule.Code)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		rule, err = repo.FindByCode(ctx, "PR-20260101-099")
		require.NoError(t, err)
		assert.Nil(t, rule)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "code", Value: "PR-20260101-002"},
			{Key: "serviceType", Value: "regular"},
			{Key: "isActive", Value: true},
		}))
		candidates, err := repo.FindCandidates(ctx, domain.RuleCriteria{
			ServiceType:     domain.ServiceTypeRegular,
			OriginArea:      domain.Area{Province: "DKI Jakarta", City: "Jakarta Selatan"},
			DestinationArea: domain.Area{Province: "Jawa Barat", City: "Bandung"},
		}, time.Now())
		require.NoError(t, err)
		require.Len(t, candidates, 1)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "code", Value: "PR-20260101-003"},
		}))
		rules, err := repo.List(ctx, domain.RuleFilter{}, domain.Pagination{Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, rules, 1)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "n", Value: int64(7)},
		}))
		count, err := repo.Count(ctx, domain.RuleFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "code", Value: "PR-20260101-007"},
		}))
		latest, err := repo.LatestCodeForDate(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "PR-20260101-007", latest)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		latest, err = repo.LatestCodeForDate(ctx, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "", latest)
	})
}

func TestPricingRuleRepository_SaveTransaction(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		repo := &PricingRuleRepository{
			collection:   mt.DB.Collection("pricing_rules"),
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourcePricing),
		}

		rule := newTestRule(t, "PR-20260101-001")

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(), // insert
			mtest.CreateSuccessResponse(), // outbox insertMany
			mtest.CreateSuccessResponse(), // commitTransaction
		)

		err := repo.Save(context.Background(), rule)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rule.Version)
		assert.Empty(t, rule.DomainEvents())
	})

	mt.Run("insert duplicate code", func(mt *mtest.T) {
		repo := &PricingRuleRepository{
			collection:   mt.DB.Collection("pricing_rules"),
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourcePricing),
		}

		rule := newTestRule(t, "PR-20260101-001")

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Save(context.Background(), rule)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRuleExists)
		assert.Equal(t, int64(0), rule.Version)
		assert.NotEmpty(t, rule.DomainEvents())
	})

	mt.Run("update", func(mt *mtest.T) {
		repo := &PricingRuleRepository{
			collection:   mt.DB.Collection("pricing_rules"),
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourcePricing),
		}

		rule := newTestRule(t, "PR-20260101-001")
		rule.Version = 1
		rule.ClearDomainEvents()
		require.NoError(t, rule.AddSpecialService(domain.SpecialService{
			Code:                   "INS",
			Name:                   "Insurance handling",
			Price:                  5000,
			ApplicableServiceTypes: []domain.ServiceType{domain.ServiceTypeRegular},
		}))

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1},
				bson.E{Key: "nModified", Value: 1},
			),
			mtest.CreateSuccessResponse(), // outbox insertMany
			mtest.CreateSuccessResponse(), // commitTransaction
		)

		err := repo.Save(context.Background(), rule)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rule.Version)
		assert.Empty(t, rule.DomainEvents())
	})

	mt.Run("update version conflict", func(mt *mtest.T) {
		repo := &PricingRuleRepository{
			collection:   mt.DB.Collection("pricing_rules"),
			db:           mt.DB,
			outboxRepo:   outboxMongo.NewOutboxRepository(mt.DB),
			eventFactory: cloudevents.NewEventFactory(cloudevents.SourcePricing),
		}

		rule := newTestRule(t, "PR-20260101-001")
		rule.Version = 1
		rule.ClearDomainEvents()
		require.NoError(t, rule.AddSpecialService(domain.SpecialService{
			Code:                   "INS",
			Name:                   "Insurance handling",
			Price:                  5000,
			ApplicableServiceTypes: []domain.ServiceType{domain.ServiceTypeRegular},
		}))

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Save(context.Background(), rule)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		// The caller's snapshot stays at its read version with events
		// intact so the whole cycle can run again.
		assert.Equal(t, int64(1), rule.Version)
		assert.NotEmpty(t, rule.DomainEvents())
	})
}

func TestRuleSequenceRepository_MockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("next sequence", func(mt *mtest.T) {
		repo := &RuleSequenceRepository{
			collection: mt.DB.Collection("rule_sequences"),
		}

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: "PR-20260101"},
				{Key: "seq", Value: 3},
			}},
		))

		seq, err := repo.NextSequence(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 3, seq)
	})
}
