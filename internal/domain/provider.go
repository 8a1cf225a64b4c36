package domain

import (
	"encoding/json"
	"sort"

	"github.com/samber/lo"
)

// ProviderSignals groups every technology seen for one carrier.
type ProviderSignals struct {
	OperatorName   string       `json:"operator_name"`
	OperatorCode   string       `json:"operator_code"`
	IsRegistered   bool         `json:"is_registered"`
	NetworkSignals []SignalInfo `json:"network_signals"`
}

// Quality buckets the carrier's strongest measurement.
func (p ProviderSignals) Quality() SignalQuality {
	if len(p.NetworkSignals) == 0 {
		return SignalUnknown
	}

	return DetermineSignalQuality(lo.MaxBy(p.NetworkSignals, func(item, current SignalInfo) bool {
		return item.SignalStrengthPercent > current.SignalStrengthPercent
	}))
}

// BestSignalPercent is the strongest percent across the carrier's technologies.
func (p ProviderSignals) BestSignalPercent() int {
	if len(p.NetworkSignals) == 0 {
		return 0
	}

	return lo.MaxBy(p.NetworkSignals, func(item, current SignalInfo) bool {
		return item.SignalStrengthPercent > current.SignalStrengthPercent
	}).SignalStrengthPercent
}

func (p ProviderSignals) MarshalJSON() ([]byte, error) {
	type plain ProviderSignals

	return json.Marshal(struct {
		plain
		BestSignalPercent int    `json:"best_signal_percent"`
		Quality           string `json:"quality"`
	}{
		plain:             plain(p),
		BestSignalPercent: p.BestSignalPercent(),
		Quality:           p.Quality().String(),
	})
}

// GroupByProvider folds ranked signals into one entry per carrier.
func GroupByProvider(signals []SignalInfo) []ProviderSignals {
	groups := groupInOrder(signals, providerKey)
	out := lo.Map(groups, func(group []SignalInfo, _ int) ProviderSignals {
		members := append([]SignalInfo(nil), group...)
		sort.SliceStable(members, func(i, j int) bool {
			return networkTypeOrder(members[i].NetworkType) < networkTypeOrder(members[j].NetworkType)
		})

		return ProviderSignals{
			OperatorName:   bestSignal(group).OperatorName,
			OperatorCode:   providerKey(group[0]),
			IsRegistered:   lo.SomeBy(group, func(s SignalInfo) bool { return s.IsRegistered }),
			NetworkSignals: members,
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsRegistered != out[j].IsRegistered {
			return out[i].IsRegistered
		}

		return out[i].BestSignalPercent() > out[j].BestSignalPercent()
	})

	return out
}

// providerKey falls back to the carrier name when the code is missing or the
// bare "-" separator, matching the dedup key.
func providerKey(s SignalInfo) string {
	if hasOperatorCode(s.OperatorCode) {
		return s.OperatorCode
	}

	return s.OperatorName
}
