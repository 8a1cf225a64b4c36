package telephony

import "github.com/detekto/cellwatch/internal/domain"

// Default platform thresholds, strongest first, for level 4 down to 1.
var dbmThresholds = map[domain.NetworkType][4]int{
	domain.NetworkGSM:   {-89, -97, -103, -107},
	domain.NetworkWCDMA: {-81, -91, -101, -111},
	domain.NetworkLTE:   {-95, -105, -115, -125},
	domain.NetworkCDMA:  {-75, -85, -95, -100},
	domain.NetworkNR:    {-80, -90, -100, -110},
}

// LevelFromDbm derives the 0..4 level for radios that only report dBm.
func LevelFromDbm(networkType domain.NetworkType, dbm int) int {
	if dbm == Unavailable || dbm == 0 {
		return 0
	}
	thresholds, ok := dbmThresholds[networkType]
	if !ok {
		return 0
	}
	for i, threshold := range thresholds {
		if dbm >= threshold {
			return 4 - i
		}
	}

	return 0
}
