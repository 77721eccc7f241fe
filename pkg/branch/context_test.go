package branch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	bc := &Context{BranchID: "BDG-01", RegionID: "JABAR", UserID: "user-7"}
	ctx := ToContext(context.Background(), bc)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, bc, got)
	assert.True(t, got.HasBranch())
}

func TestFromContextMissingBranch(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingBranchContext)
}

func TestFromContextOptional(t *testing.T) {
	bc := FromContextOptional(context.Background())
	require.NotNil(t, bc)
	assert.False(t, bc.HasBranch())

	ctx := ToContext(context.Background(), &Context{BranchID: DefaultBranchID})
	assert.Equal(t, "HQ", FromContextOptional(ctx).BranchID)
}

func TestToContextNil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, ToContext(ctx, nil))
}
