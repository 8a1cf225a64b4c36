package domain

const (
	PercentGood = 75
	PercentFair = 50
)

type SignalQuality int

const (
	SignalUnknown SignalQuality = iota
	SignalBad
	SignalFair
	SignalGood
)

func (q SignalQuality) String() string {
	switch q {
	case SignalGood:
		return "good"
	case SignalFair:
		return "fair"
	case SignalBad:
		return "bad"
	default:
		return "unknown"
	}
}

// DetermineSignalQuality buckets a measurement the way the bar indicator does:
// 3-4 bars good, 2 bars fair, fewer bad.
func DetermineSignalQuality(s SignalInfo) SignalQuality {
	if !s.IsMeasured() {
		return SignalUnknown
	}
	if s.SignalStrengthPercent >= PercentGood {
		return SignalGood
	}
	if s.SignalStrengthPercent >= PercentFair {
		return SignalFair
	}

	return SignalBad
}
