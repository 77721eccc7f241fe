// Package mongodb implements the pricing domain repositories using MongoDB
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/domain"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/cloudevents"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/kafka"
	sharedMongo "github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/mongodb"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/outbox"
	outboxMongo "github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/outbox/mongodb"
)

const ruleCodeDateLayout = "20060102"

// PricingRuleRepository implements domain.PricingRuleRepository using MongoDB
type PricingRuleRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewPricingRuleRepository creates a new MongoDB pricing rule repository
func NewPricingRuleRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *PricingRuleRepository {
	collection := db.Collection("pricing_rules")

	// Create indexes
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "serviceType", Value: 1},
				{Key: "isActive", Value: 1},
				{Key: "priority", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "originArea.province", Value: 1},
				{Key: "originArea.city", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "destinationArea.province", Value: 1},
				{Key: "destinationArea.city", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "effectiveDate", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "branch", Value: 1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	outboxRepo := outboxMongo.NewOutboxRepository(db)
	_ = outboxRepo.EnsureIndexes(ctx)

	return &PricingRuleRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
}

// GetOutboxRepository returns the outbox repository sharing this
// repository's database, for the outbox publisher
func (r *PricingRuleRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}

// Save persists a rule and stages its domain events in the outbox
// within one transaction. A rule at version zero inserts; anything
// else replaces the stored document under a version check, so a
// concurrent write since the caller's read surfaces as
// domain.ErrVersionConflict.
func (r *PricingRuleRepository) Save(ctx context.Context, rule *domain.PricingRule) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	prev := rule.Version

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		// The callback can run more than once; always derive the write
		// from the version the caller read.
		rule.Version = prev

		if prev == 0 {
			rule.Version = 1
			if _, err := r.collection.InsertOne(sessCtx, rule); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, domain.ErrRuleExists
				}
				return nil, fmt.Errorf("failed to insert pricing rule: %w", err)
			}
		} else {
			rule.Version = prev + 1
			result, err := r.collection.ReplaceOne(sessCtx,
				bson.M{"code": rule.Code, "version": prev}, rule)
			if err != nil {
				return nil, fmt.Errorf("failed to replace pricing rule: %w", err)
			}
			if result.MatchedCount == 0 {
				return nil, domain.ErrVersionConflict
			}
		}

		return nil, r.stageOutboxEvents(sessCtx, rule)
	})
	if err != nil {
		rule.Version = prev
		return err
	}

	// Events are staged with the committed write; clearing them after
	// the transaction keeps an aborted attempt replayable.
	rule.ClearDomainEvents()
	return nil
}

func (r *PricingRuleRepository) stageOutboxEvents(sessCtx mongo.SessionContext, rule *domain.PricingRule) error {
	events := rule.DomainEvents()
	if len(events) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(events))
	for _, event := range events {
		cloudEvent := r.eventFactory.CreateEvent(sessCtx, event.EventType(), "rule/"+rule.Code, event)
		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(
			rule.Code, "PricingRule", kafka.Topics.PricingEvents, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	return r.outboxRepo.SaveAll(sessCtx, outboxEvents)
}

// FindByCode retrieves a rule by code, or nil when absent
func (r *PricingRuleRepository) FindByCode(ctx context.Context, code string) (*domain.PricingRule, error) {
	filter := sharedMongo.BuildFilter("code", code)

	var rule domain.PricingRule
	err := r.collection.FindOne(ctx, filter).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pricing rule: %w", err)
	}

	return &rule, nil
}

// FindCandidates retrieves the active rules on the requested lane and
// service level. This is a coarse pre-filter: stored rules always
// carry a province and city, so equality is safe here, while district
// scope, customer type, branch, validity windows and ordering are
// applied in memory by the domain.
func (r *PricingRuleRepository) FindCandidates(ctx context.Context, criteria domain.RuleCriteria, now time.Time) ([]*domain.PricingRule, error) {
	filter := bson.M{
		"serviceType":              criteria.ServiceType,
		"isActive":                 true,
		"originArea.province":      criteria.OriginArea.Province,
		"originArea.city":          criteria.OriginArea.City,
		"destinationArea.province": criteria.DestinationArea.Province,
		"destinationArea.city":     criteria.DestinationArea.City,
	}

	return r.findMany(ctx, filter, options.Find())
}

// List retrieves rules matching a filter, ordered by priority
// descending then code ascending
func (r *PricingRuleRepository) List(ctx context.Context, filter domain.RuleFilter, pagination domain.Pagination) ([]*domain.PricingRule, error) {
	opts := options.Find().
		SetSort(sharedMongo.SortMultiple(
			sharedMongo.SortField{Field: "priority", Descending: true},
			sharedMongo.SortField{Field: "code"},
		)).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	return r.findMany(ctx, buildRuleFilter(filter), opts)
}

// Count returns the number of rules matching a filter
func (r *PricingRuleRepository) Count(ctx context.Context, filter domain.RuleFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, buildRuleFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count pricing rules: %w", err)
	}
	return count, nil
}

// LatestCodeForDate returns the highest rule code carrying the given
// date, or empty when none exist. Sequences are zero-padded to three
// digits so the lexicographic maximum is the numeric maximum.
func (r *PricingRuleRepository) LatestCodeForDate(ctx context.Context, date time.Time) (string, error) {
	prefix := fmt.Sprintf("PR-%s-", date.UTC().Format(ruleCodeDateLayout))
	filter := bson.M{"code": bson.M{"$regex": "^" + prefix}}

	opts := options.FindOne().SetSort(sharedMongo.SortDescending("code"))

	var rule domain.PricingRule
	err := r.collection.FindOne(ctx, filter, opts).Decode(&rule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find latest rule code: %w", err)
	}

	return rule.Code, nil
}

func (r *PricingRuleRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.PricingRule, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pricing rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []*domain.PricingRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode pricing rules: %w", err)
	}

	return rules, nil
}

func buildRuleFilter(filter domain.RuleFilter) bson.M {
	mongoFilter := bson.M{}

	if filter.ServiceType != nil {
		mongoFilter["serviceType"] = *filter.ServiceType
	}
	if filter.PricingType != nil {
		mongoFilter["pricingType"] = *filter.PricingType
	}
	if filter.CustomerType != nil {
		// Array field; equality matches membership
		mongoFilter["applicableCustomerTypes"] = *filter.CustomerType
	}
	if filter.IsActive != nil {
		mongoFilter["isActive"] = *filter.IsActive
	}
	if filter.Branch != nil {
		mongoFilter["branch"] = *filter.Branch
	}
	if filter.OriginCity != nil {
		mongoFilter["originArea.city"] = *filter.OriginCity
	}
	if filter.DestinationCity != nil {
		mongoFilter["destinationArea.city"] = *filter.DestinationCity
	}
	if filter.EffectiveOn != nil {
		// A null expiry matches missing fields too; open-ended rules
		// never expire.
		mongoFilter["effectiveDate"] = bson.M{"$lte": *filter.EffectiveOn}
		mongoFilter["$or"] = []bson.M{
			{"expiryDate": nil},
			{"expiryDate": bson.M{"$gte": *filter.EffectiveOn}},
		}
	}

	return mongoFilter
}

// RuleSequenceRepository implements domain.RuleSequenceRepository on an
// atomic per-day counter document
type RuleSequenceRepository struct {
	collection *mongo.Collection
}

// NewRuleSequenceRepository creates a new MongoDB rule sequence repository
func NewRuleSequenceRepository(db *mongo.Database) *RuleSequenceRepository {
	return &RuleSequenceRepository{
		collection: db.Collection("rule_sequences"),
	}
}

// NextSequence increments and returns the counter for a date. The
// upserting findOneAndUpdate is atomic on the server, so concurrent
// creations never observe the same number.
func (r *RuleSequenceRepository) NextSequence(ctx context.Context, date time.Time) (int, error) {
	key := fmt.Sprintf("PR-%s", date.UTC().Format(ruleCodeDateLayout))

	filter := sharedMongo.BuildFilter("_id", key)
	update := sharedMongo.BuildIncrementUpdate("seq", 1)
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int `bson:"seq"`
	}
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("failed to allocate rule sequence: %w", err)
	}

	return counter.Seq, nil
}
