package branch

import (
	"context"
	"errors"
)

// Context keys for branch information
type contextKey string

const (
	branchIDKey contextKey = "branchId"
	regionIDKey contextKey = "regionId"
	userIDKey   contextKey = "userId"
)

// ErrMissingBranchContext is returned when a request carries no
// branch identifier.
var ErrMissingBranchContext = errors.New("branch context is required")

// Context holds the branch identifiers a request operates under.
// Pricing rules can be scoped to a branch or left global; the branch
// context supplies the requesting branch when callers omit one.
type Context struct {
	// BranchID is the operating branch (cabang) identifier
	BranchID string `json:"branchId"`

	// RegionID is the regional grouping the branch belongs to
	RegionID string `json:"regionId,omitempty"`

	// UserID is the authenticated user acting on behalf of the branch
	UserID string `json:"userId,omitempty"`
}

// FromContext extracts the branch context from context.Context.
// Returns an error when no branch identifier is present.
func FromContext(ctx context.Context) (*Context, error) {
	bc := &Context{
		BranchID: GetBranchID(ctx),
		RegionID: GetRegionID(ctx),
		UserID:   GetUserID(ctx),
	}

	if bc.BranchID == "" {
		return nil, ErrMissingBranchContext
	}

	return bc, nil
}

// FromContextOptional extracts the branch context from context.Context.
// Unlike FromContext, this returns an empty context when none exists.
func FromContextOptional(ctx context.Context) *Context {
	bc, _ := FromContext(ctx)
	if bc == nil {
		return &Context{}
	}
	return bc
}

// ToContext adds branch context values to context.Context
func ToContext(ctx context.Context, bc *Context) context.Context {
	if bc == nil {
		return ctx
	}

	if bc.BranchID != "" {
		ctx = context.WithValue(ctx, branchIDKey, bc.BranchID)
	}
	if bc.RegionID != "" {
		ctx = context.WithValue(ctx, regionIDKey, bc.RegionID)
	}
	if bc.UserID != "" {
		ctx = context.WithValue(ctx, userIDKey, bc.UserID)
	}

	return ctx
}

// GetBranchID extracts the branch ID from context
func GetBranchID(ctx context.Context) string {
	if v := ctx.Value(branchIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetRegionID extracts the region ID from context
func GetRegionID(ctx context.Context) string {
	if v := ctx.Value(regionIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(userIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// HasBranch returns true if a branch ID is set
func (bc *Context) HasBranch() bool {
	return bc.BranchID != ""
}

// DefaultBranchID is used during the migration period for requests
// arriving without branch headers.
const DefaultBranchID = "HQ"
