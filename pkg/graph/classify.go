package graph

// Tier is the core/leaf classification of a node. Core nodes are matched
// directly by the selection predicate; leaf nodes are one referral hop away.
type Tier string

const (
	TierCore Tier = "core"
	TierLeaf Tier = "leaf"
)

// Category classifies a referral edge by the tiers of its endpoints,
// reading from-tier to to-tier.
type Category string

const (
	CategoryCoreToCore Category = "core-to-core"
	CategoryCoreToLeaf Category = "core-to-leaf"
	CategoryLeafToCore Category = "leaf-to-core"
	CategoryLeafToLeaf Category = "leaf-to-leaf"
	CategoryUnknown    Category = "unknown"
)

// Classify maps an ordered tier pair to its edge category. Total over the
// four core/leaf combinations; any unrecognized tier yields CategoryUnknown.
func Classify(from, to Tier) Category {
	switch {
	case from == TierCore && to == TierCore:
		return CategoryCoreToCore
	case from == TierCore && to == TierLeaf:
		return CategoryCoreToLeaf
	case from == TierLeaf && to == TierCore:
		return CategoryLeafToCore
	case from == TierLeaf && to == TierLeaf:
		return CategoryLeafToLeaf
	default:
		return CategoryUnknown
	}
}

// CategoryCounts tallies edge observations per category. Counts are plain
// one-based: the first observation of a category records 1.
type CategoryCounts map[Category]int

// Observe records one occurrence of the given category.
func (c CategoryCounts) Observe(cat Category) {
	c[cat]++
}
