package domain

import (
	"sort"

	"github.com/samber/lo"
)

// Rank collapses duplicate measurements of the same carrier and technology
// into one entry and orders the result serving cell first, then by signal.
func Rank(signals []SignalInfo) []SignalInfo {
	groups := groupInOrder(signals, dedupKey)
	out := lo.Map(groups, func(group []SignalInfo, _ int) SignalInfo {
		return bestSignal(group)
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsRegistered != out[j].IsRegistered {
			return out[i].IsRegistered
		}

		return out[i].SignalStrengthPercent > out[j].SignalStrengthPercent
	})

	return out
}

// dedupKey groups by operator code and technology. Cells without a usable
// code fall back to the resolved name so "Unknown" neighbors still collapse.
func dedupKey(s SignalInfo) string {
	if hasOperatorCode(s.OperatorCode) {
		return s.OperatorCode + "|" + string(s.NetworkType)
	}

	return "name:" + s.OperatorName + "|" + string(s.NetworkType)
}

func bestSignal(group []SignalInfo) SignalInfo {
	return lo.MaxBy(group, func(item, current SignalInfo) bool {
		return rankScore(item) > rankScore(current)
	})
}

// groupInOrder buckets items by key keeping first-seen group order.
func groupInOrder[T any](items []T, key func(T) string) [][]T {
	index := make(map[string]int, len(items))
	groups := make([][]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, nil)
		}
		groups[pos] = append(groups[pos], item)
	}

	return groups
}
