package domain

import "fmt"

// TierKind distinguishes the two tier lists on a rule
type TierKind string

const (
	TierKindWeight   TierKind = "weight"
	TierKindDistance TierKind = "distance"
)

// Tier is a contiguous quantity band with its own linear pricing
// formula: price = flatPrice + quantity * pricePerUnit. Bands are
// half-open [min, max); an absent max is unbounded.
type Tier struct {
	Min          float64  `bson:"min" json:"min"`
	Max          *float64 `bson:"max,omitempty" json:"max,omitempty"`
	PricePerUnit float64  `bson:"pricePerUnit" json:"pricePerUnit"`
	FlatPrice    float64  `bson:"flatPrice" json:"flatPrice"`
}

// Validate checks the tier invariants
func (t Tier) Validate() error {
	if t.Min < 0 {
		return fmt.Errorf("%w: minimum %v is negative", ErrTierBounds, t.Min)
	}
	if t.Max != nil && *t.Max <= t.Min {
		return fmt.Errorf("%w: [%v, %v)", ErrTierBounds, t.Min, *t.Max)
	}
	if t.PricePerUnit < 0 || t.FlatPrice < 0 {
		return ErrNegativePrice
	}
	return nil
}

// Contains reports whether a quantity falls in the tier's band. The
// upper bound is inclusive here so a quantity sitting exactly on a
// boundary resolves to the lower band during an in-order scan.
func (t Tier) Contains(quantity float64) bool {
	if quantity < t.Min {
		return false
	}
	return t.Max == nil || quantity <= *t.Max
}

// Overlaps reports whether two tiers cover any common quantity
func (t Tier) Overlaps(other Tier) bool {
	if t.Max != nil && *t.Max <= other.Min {
		return false
	}
	if other.Max != nil && *other.Max <= t.Min {
		return false
	}
	return true
}

// CheckTierOverlap rejects a candidate tier that overlaps any existing
// tier. Called on every tier addition; the calculation path assumes
// stored tiers are already disjoint.
func CheckTierOverlap(existing []Tier, candidate Tier) error {
	for _, t := range existing {
		if t.Overlaps(candidate) {
			return fmt.Errorf("%w: [%v, %s) and [%v, %s)",
				ErrTierOverlap,
				candidate.Min, boundLabel(candidate.Max),
				t.Min, boundLabel(t.Max))
		}
	}
	return nil
}

func boundLabel(max *float64) string {
	if max == nil {
		return "inf"
	}
	return fmt.Sprintf("%v", *max)
}

// ResolveTier selects the tier whose band contains the quantity,
// scanning in order. Quantities beyond every bounded band extrapolate
// on the last tier. An empty list returns ErrNoTiers and the caller
// falls back to the rule's base price.
func ResolveTier(tiers []Tier, quantity float64) (Tier, error) {
	if len(tiers) == 0 {
		return Tier{}, ErrNoTiers
	}

	for _, t := range tiers {
		if t.Contains(quantity) {
			return t, nil
		}
	}

	return tiers[len(tiers)-1], nil
}
