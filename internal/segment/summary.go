package segment

import (
	"github.com/samber/lo"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

// Summarize counts records per tier in rank order. Tiers with no records are
// reported with a zero count.
func Summarize(records []model.SegmentedRecord) []model.TierCount {
	groups := lo.GroupBy(records, func(r model.SegmentedRecord) model.Tier {
		return r.Tier
	})
	return lo.Map(model.Tiers, func(t model.Tier, _ int) model.TierCount {
		return model.TierCount{Tier: t, Count: len(groups[t])}
	})
}
