package domain

import (
	"context"
	"time"
)

// PricingRuleRepository defines the interface for rule persistence
type PricingRuleRepository interface {
	// Save persists a rule. Updates carry the version the caller read;
	// a concurrent write in between surfaces as ErrVersionConflict and
	// inserting a duplicate code as ErrRuleExists.
	Save(ctx context.Context, rule *PricingRule) error

	// FindByCode retrieves a rule by code, or nil when absent
	FindByCode(ctx context.Context, code string) (*PricingRule, error)

	// FindCandidates retrieves the active rules that could match the
	// criteria. The store query is a coarse pre-filter; exact matching
	// and ordering happen in memory via SelectApplicableRules.
	FindCandidates(ctx context.Context, criteria RuleCriteria, now time.Time) ([]*PricingRule, error)

	// List retrieves rules matching a filter
	List(ctx context.Context, filter RuleFilter, pagination Pagination) ([]*PricingRule, error)

	// Count returns total count matching filter
	Count(ctx context.Context, filter RuleFilter) (int64, error)

	// LatestCodeForDate returns the highest rule code carrying the
	// given date, or empty when none exist
	LatestCodeForDate(ctx context.Context, date time.Time) (string, error)
}

// RuleSequenceRepository allocates rule code sequence numbers. The
// allocation must be atomic per day so concurrent rule creations never
// observe the same number.
type RuleSequenceRepository interface {
	// NextSequence returns the next sequence number for a date
	NextSequence(ctx context.Context, date time.Time) (int, error)
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}

// RuleFilter represents filter options for querying rules
type RuleFilter struct {
	ServiceType     *ServiceType
	PricingType     *PricingType
	CustomerType    *CustomerType
	IsActive        *bool
	Branch          *string
	OriginCity      *string
	DestinationCity *string
	EffectiveOn     *time.Time
}
