package telephony

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"

	"github.com/detekto/cellwatch/internal/domain"
)

// Platform API levels that change which identity fields are trustworthy.
const (
	APILevelP = 28
	APILevelQ = 29
)

// Parser normalizes raw cells into SignalInfo.
type Parser struct {
	APILevel int
	// Names is consulted after the built-in carrier table. Nil disables it.
	Names domain.NameLookup
}

// Parse converts one cell. The second result is false for technologies the
// pipeline does not model.
func (p Parser) Parse(cell Cell) (domain.SignalInfo, bool) {
	switch c := cell.(type) {
	case GSMCell:
		return p.plmnSignal(c.Identity, c), true
	case WCDMACell:
		return p.plmnSignal(c.Identity, c), true
	case LTECell:
		return p.plmnSignal(c.Identity, c), true
	case CDMACell:
		return p.cdmaSignal(c), true
	case NRCell:
		if p.APILevel < APILevelQ {
			return domain.SignalInfo{}, false
		}

		return p.nrSignal(c), true
	default:
		return domain.SignalInfo{}, false
	}
}

// ParseAll parses every cell and drops unmodelled and unmeasured ones.
func (p Parser) ParseAll(cells []Cell) []domain.SignalInfo {
	return lo.FilterMap(cells, func(cell Cell, _ int) (domain.SignalInfo, bool) {
		info, ok := p.Parse(cell)
		if !ok || !info.IsMeasured() {
			return domain.SignalInfo{}, false
		}

		return info, true
	})
}

func (p Parser) plmnSignal(id PLMN, cell Cell) domain.SignalInfo {
	code := p.operatorCode(id)

	return p.signal(cell, code, domain.ResolveOperatorNameWith(id.AlphaLong, id.AlphaShort, code, p.Names))
}

func (p Parser) cdmaSignal(c CDMACell) domain.SignalInfo {
	code := fmt.Sprintf("CDMA-%d-%d", c.SystemID, c.NetworkID)
	var alphaLong, alphaShort string
	if p.APILevel >= APILevelP {
		alphaLong, alphaShort = c.AlphaLong, c.AlphaShort
	}

	return p.signal(c, code, domain.ResolveOperatorNameWith(alphaLong, alphaShort, code, p.Names))
}

// nrSignal uses the string identity as-is; a cell with neither part yields "-".
func (p Parser) nrSignal(c NRCell) domain.SignalInfo {
	code := c.Identity.MCC + "-" + c.Identity.MNC

	return p.signal(c, code, domain.ResolveOperatorNameWith(c.Identity.AlphaLong, c.Identity.AlphaShort, code, p.Names))
}

func (p Parser) signal(cell Cell, code, name string) domain.SignalInfo {
	strength := cell.Signal()

	return domain.SignalInfo{
		OperatorName:          name,
		NetworkType:           cell.Technology(),
		SignalStrengthDbm:     strength.Dbm,
		SignalStrengthPercent: domain.LevelToPercent(strength.Level),
		IsRegistered:          cell.IsRegistered(),
		OperatorCode:          code,
	}
}

func (p Parser) operatorCode(id PLMN) string {
	if p.APILevel >= APILevelP {
		if id.MCC != "" && id.MNC != "" {
			return id.MCC + "-" + id.MNC
		}

		return ""
	}
	if id.LegacyMCC != Unavailable && id.LegacyMNC != Unavailable {
		return strconv.Itoa(id.LegacyMCC) + "-" + strconv.Itoa(id.LegacyMNC)
	}

	return ""
}

// BroadcastName extracts the carrier name a cell broadcasts together with its
// code, for learning names of silent neighbors.
func (p Parser) BroadcastName(cell Cell) (domain.OperatorSighting, bool) {
	var code, alphaLong, alphaShort string
	switch c := cell.(type) {
	case GSMCell:
		code, alphaLong, alphaShort = p.operatorCode(c.Identity), c.Identity.AlphaLong, c.Identity.AlphaShort
	case WCDMACell:
		code, alphaLong, alphaShort = p.operatorCode(c.Identity), c.Identity.AlphaLong, c.Identity.AlphaShort
	case LTECell:
		code, alphaLong, alphaShort = p.operatorCode(c.Identity), c.Identity.AlphaLong, c.Identity.AlphaShort
	case NRCell:
		if p.APILevel < APILevelQ || c.Identity.MCC == "" || c.Identity.MNC == "" {
			return domain.OperatorSighting{}, false
		}
		code, alphaLong, alphaShort = c.Identity.MCC+"-"+c.Identity.MNC, c.Identity.AlphaLong, c.Identity.AlphaShort
	default:
		return domain.OperatorSighting{}, false
	}
	if code == "" {
		return domain.OperatorSighting{}, false
	}
	// Only a real broadcast counts; table and synthesized names are not learned.
	name := domain.ResolveOperatorNameWith(alphaLong, alphaShort, "", nil)
	if name == domain.UnknownOperatorName {
		return domain.OperatorSighting{}, false
	}

	return domain.OperatorSighting{Code: code, Name: name}, true
}
