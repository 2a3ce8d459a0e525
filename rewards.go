package cryptotax

import (
	"math"
	"sort"
)

// AssetReward is the reward income of one asset: the quantity earned and its
// EUR value when the ledger carries one (declared or enriched).
type AssetReward struct {
	Asset    string
	Quantity float64
	ValueEUR float64
	// Unvalued counts reward rows with no EUR valuation; their quantity is
	// in Quantity but missing from ValueEUR.
	Unvalued int
}

// RewardYear groups the reward income of one calendar year.
type RewardYear struct {
	Year   int
	Assets []*AssetReward // sorted by asset
}

// RewardReport totals earned income (Receive transactions labeled Reward)
// per year and globally.
type RewardReport struct {
	Years  []*RewardYear
	Global []*AssetReward // sorted by asset
}

// SummarizeRewards folds reward transactions into per-year and global
// per-asset totals. Rows without a parseable amount count for zero.
func SummarizeRewards(txs []*Transaction) *RewardReport {
	years := make(map[int]map[string]*AssetReward)
	global := make(map[string]*AssetReward)

	upsert := func(m map[string]*AssetReward, t *Transaction) {
		a, ok := m[t.ReceivedAsset]
		if !ok {
			a = &AssetReward{Asset: t.ReceivedAsset}
			m[t.ReceivedAsset] = a
		}
		a.Quantity += t.ReceivedAmount
		if !math.IsNaN(t.ReceivedValue) {
			a.ValueEUR += t.ReceivedValue
		} else {
			a.Unvalued++
		}
	}

	for _, t := range txs {
		if !t.IsReward() || !t.HasReceived() {
			continue
		}
		year := t.Year()
		if _, ok := years[year]; !ok {
			years[year] = make(map[string]*AssetReward)
		}
		upsert(years[year], t)
		upsert(global, t)
	}

	report := &RewardReport{Global: sortRewards(global)}
	for year, m := range years {
		report.Years = append(report.Years, &RewardYear{Year: year, Assets: sortRewards(m)})
	}
	sort.Slice(report.Years, func(i, j int) bool { return report.Years[i].Year < report.Years[j].Year })
	return report
}

func sortRewards(m map[string]*AssetReward) []*AssetReward {
	out := make([]*AssetReward, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}
