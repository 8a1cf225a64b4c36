package domain

import (
	"math"
	"strings"
)

// NetworkType is the radio technology a measurement was taken on.
type NetworkType string

const (
	NetworkGSM   NetworkType = "GSM"
	NetworkWCDMA NetworkType = "WCDMA"
	NetworkLTE   NetworkType = "LTE"
	NetworkCDMA  NetworkType = "CDMA"
	NetworkNR    NetworkType = "5G NR"
)

// UnmeasuredDbm is the platform marker for a signal that was not measured.
const UnmeasuredDbm = math.MaxInt32

// SignalInfo is one normalized cell measurement.
type SignalInfo struct {
	OperatorName          string      `json:"operator_name"`
	NetworkType           NetworkType `json:"network_type"`
	SignalStrengthDbm     int         `json:"signal_strength_dbm"`
	SignalStrengthPercent int         `json:"signal_strength_percent"`
	IsRegistered          bool        `json:"is_registered"`
	OperatorCode          string      `json:"operator_code"`
}

// IsMeasured reports whether the dBm value is a real reading. The platform
// reports both MaxInt32 and exactly 0 for cells it did not measure.
func (s SignalInfo) IsMeasured() bool {
	return s.SignalStrengthDbm != UnmeasuredDbm && s.SignalStrengthDbm != 0
}

// LevelToPercent maps the platform 0..4 quality level onto 0..100.
func LevelToPercent(level int) int {
	percent := int(math.Round(float64(level) / 4.0 * 100))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}

	return percent
}

// NetworkGeneration returns the marketing generation label for a network type.
func NetworkGeneration(networkType NetworkType) string {
	switch networkType {
	case NetworkNR:
		return "5G"
	case NetworkLTE:
		return "4G"
	case NetworkWCDMA:
		return "3G"
	case NetworkGSM:
		return "2G"
	default:
		return string(networkType)
	}
}

func networkTypeOrder(networkType NetworkType) int {
	switch networkType {
	case NetworkNR:
		return 0
	case NetworkLTE:
		return 1
	case NetworkWCDMA:
		return 2
	case NetworkGSM:
		return 3
	case NetworkCDMA:
		return 4
	default:
		return 5
	}
}

// rankScore puts any serving cell above every neighbor, then prefers stronger signal.
func rankScore(s SignalInfo) int {
	score := s.SignalStrengthPercent
	if s.IsRegistered {
		score += 10000
	}

	return score
}

func hasOperatorCode(code string) bool {
	code = strings.TrimSpace(code)

	return code != "" && code != "-"
}
