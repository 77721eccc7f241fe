package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/branch"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
)

// Branch context HTTP header names
const (
	HeaderERPBranchID = "X-ERP-Branch-ID"
	HeaderERPRegionID = "X-ERP-Region-ID"
	HeaderERPUserID   = "X-ERP-User-ID"
)

// BranchAuthConfig holds configuration for branch authorization middleware
type BranchAuthConfig struct {
	// Required when true, requests without a branch header will be rejected
	Required bool

	// DefaultBranchID is used when no branch header is provided and Required is false
	DefaultBranchID string
}

// DefaultBranchAuthConfig returns a default configuration for backward compatibility
func DefaultBranchAuthConfig() *BranchAuthConfig {
	return &BranchAuthConfig{
		Required:        false,
		DefaultBranchID: branch.DefaultBranchID,
	}
}

// BranchAuth middleware extracts branch context from headers and adds it to the
// request context. Pricing rules can be branch-scoped; handlers default their
// match criteria from this context when the caller does not name a branch.
func BranchAuth(config *BranchAuthConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultBranchAuthConfig()
	}

	return func(c *gin.Context) {
		// Extract branch context from headers
		branchID := c.GetHeader(HeaderERPBranchID)
		regionID := c.GetHeader(HeaderERPRegionID)
		userID := c.GetHeader(HeaderERPUserID)

		// Apply default if not provided and config allows
		if branchID == "" && !config.Required {
			branchID = config.DefaultBranchID
		}

		// Check if branch context is required but missing
		if config.Required && branchID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "MISSING_BRANCH_CONTEXT",
				"message": "Branch context is required",
			})
			return
		}

		// Create branch context
		bc := &branch.Context{
			BranchID: branchID,
			RegionID: regionID,
			UserID:   userID,
		}

		// Add branch context to Go context; the acting user also goes
		// into the logging context so mutation log lines carry it
		ctx := branch.ToContext(c.Request.Context(), bc)
		if userID != "" {
			ctx = logging.ContextWithUserID(ctx, userID)
		}
		c.Request = c.Request.WithContext(ctx)

		// Also store in Gin context for easy access in handlers
		c.Set("branchContext", bc)

		c.Next()
	}
}

// GetBranchContext retrieves the branch context from Gin context
func GetBranchContext(c *gin.Context) *branch.Context {
	if val, exists := c.Get("branchContext"); exists {
		if bc, ok := val.(*branch.Context); ok {
			return bc
		}
	}

	// Fallback: try to build from the request context
	return branch.FromContextOptional(c.Request.Context())
}
