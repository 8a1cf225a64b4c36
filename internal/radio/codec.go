package radio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/telephony"
)

// Operator is the registered network as reported by +COPS.
type Operator struct {
	Numeric string
	Alpha   string
	AcT     int
}

// MCC is the first three digits of the numeric PLMN.
func (o Operator) MCC() string {
	if len(o.Numeric) < 5 {
		return ""
	}

	return o.Numeric[:3]
}

// MNC is the remaining two or three digits of the numeric PLMN.
func (o Operator) MNC() string {
	if len(o.Numeric) < 5 {
		return ""
	}

	return o.Numeric[3:]
}

// decodeCOPS parses `+COPS: <mode>[,<format>,"<oper>"[,<AcT>]]`. A bare
// mode means the modem is not registered.
func decodeCOPS(payload string) (format int, oper string, act int, ok bool) {
	fields := splitFields(payload)
	if len(fields) < 3 {
		return 0, "", 0, false
	}
	format, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, "", 0, false
	}
	act = -1
	if len(fields) > 3 {
		if v, err := strconv.Atoi(fields[3]); err == nil {
			act = v
		}
	}

	return format, fields[2], act, fields[2] != ""
}

// servingCell is the decoded ^MONSC answer before identity is merged in.
type servingCell struct {
	tech domain.NetworkType
	mcc  string
	mnc  string
	cell telephony.Cell
}

// decodeMONSC parses the serving cell line. ok is false for `^MONSC: NONE`
// and for technologies the pipeline does not model.
func decodeMONSC(payload string) (servingCell, bool, error) {
	f := splitFields(payload)
	if len(f) == 0 || strings.EqualFold(f[0], "NONE") {
		return servingCell{}, false, nil
	}

	switch strings.ToUpper(f[0]) {
	case "GSM":
		// GSM,<MCC>,<MNC>,<BAND>,<ARFCN>,<BSIC>,<Cell_ID>,<LAC>,<RXLEV>,<RxQuality>,<TA>
		if len(f) < 9 {
			return servingCell{}, false, fmt.Errorf("short ^MONSC gsm line: %q", payload)
		}
		dbm := atoiOr(f[8], telephony.Unavailable)
		cell := telephony.GSMCell{
			ARFCN:    atoiOr(f[4], telephony.Unavailable),
			BSIC:     atoiOr(f[5], telephony.Unavailable),
			CID:      hexOr(f[6], telephony.Unavailable),
			LAC:      hexOr(f[7], telephony.Unavailable),
			Strength: strengthFor(domain.NetworkGSM, dbm),
		}

		return servingCell{tech: domain.NetworkGSM, mcc: f[1], mnc: f[2], cell: cell}, true, nil
	case "WCDMA":
		// WCDMA,<MCC>,<MNC>,<ARFCN>,<PSC>,<Cell_ID>,<LAC>,<RSCP>,<RXLEV>,<EC/N0>,<DRX>,<URA>
		if len(f) < 8 {
			return servingCell{}, false, fmt.Errorf("short ^MONSC wcdma line: %q", payload)
		}
		dbm := atoiOr(f[7], telephony.Unavailable)
		cell := telephony.WCDMACell{
			UARFCN:   atoiOr(f[3], telephony.Unavailable),
			PSC:      atoiOr(f[4], telephony.Unavailable),
			CID:      hexOr(f[5], telephony.Unavailable),
			LAC:      hexOr(f[6], telephony.Unavailable),
			Strength: strengthFor(domain.NetworkWCDMA, dbm),
		}

		return servingCell{tech: domain.NetworkWCDMA, mcc: f[1], mnc: f[2], cell: cell}, true, nil
	case "LTE":
		// LTE,<MCC>,<MNC>,<ARFCN>,<Cell_ID>,<PCI>,<TAC>,<RSRP>,<RSRQ>,<RXLEV>
		if len(f) < 8 {
			return servingCell{}, false, fmt.Errorf("short ^MONSC lte line: %q", payload)
		}
		dbm := atoiOr(f[7], telephony.Unavailable)
		cell := telephony.LTECell{
			EARFCN:   atoiOr(f[3], telephony.Unavailable),
			CI:       hexOr(f[4], telephony.Unavailable),
			PCI:      atoiOr(f[5], telephony.Unavailable),
			TAC:      hexOr(f[6], telephony.Unavailable),
			Strength: strengthFor(domain.NetworkLTE, dbm),
		}

		return servingCell{tech: domain.NetworkLTE, mcc: f[1], mnc: f[2], cell: cell}, true, nil
	case "NR":
		// NR,<MCC>,<MNC>,<ARFCN>,<SCS>,<Cell_ID>,<PCI>,<TAC>,<RSRP>,<RSRQ>,<SINR>
		if len(f) < 9 {
			return servingCell{}, false, fmt.Errorf("short ^MONSC nr line: %q", payload)
		}
		dbm := atoiOr(f[8], telephony.Unavailable)
		nci, err := strconv.ParseInt(f[5], 16, 64)
		if err != nil {
			nci = telephony.Unavailable
		}
		cell := telephony.NRCell{
			NRARFCN:  atoiOr(f[3], telephony.Unavailable),
			NCI:      nci,
			PCI:      atoiOr(f[6], telephony.Unavailable),
			TAC:      hexOr(f[7], telephony.Unavailable),
			Strength: strengthFor(domain.NetworkNR, dbm),
		}

		return servingCell{tech: domain.NetworkNR, mcc: f[1], mnc: f[2], cell: cell}, true, nil
	default:
		return servingCell{}, false, nil
	}
}

// decodeMONNC parses one neighbor line. Neighbor reports carry no PLMN.
func decodeMONNC(payload string) (telephony.Cell, bool) {
	f := splitFields(payload)
	if len(f) == 0 {
		return nil, false
	}
	unknown := telephony.UnknownPLMN()

	switch strings.ToUpper(f[0]) {
	case "GSM":
		// GSM,<BAND>,<ARFCN>,<BSIC>,<Cell_ID>,<LAC>,<RXLEV>
		if len(f) < 7 {
			return nil, false
		}

		return telephony.GSMCell{
			Identity: unknown,
			ARFCN:    atoiOr(f[2], telephony.Unavailable),
			BSIC:     atoiOr(f[3], telephony.Unavailable),
			CID:      hexOr(f[4], telephony.Unavailable),
			LAC:      hexOr(f[5], telephony.Unavailable),
			Strength: strengthFor(domain.NetworkGSM, atoiOr(f[6], telephony.Unavailable)),
		}, true
	case "WCDMA":
		// WCDMA,<ARFCN>,<PSC>,<RSCP>,<EC/N0>
		if len(f) < 4 {
			return nil, false
		}

		return telephony.WCDMACell{
			Identity: unknown,
			UARFCN:   atoiOr(f[1], telephony.Unavailable),
			PSC:      atoiOr(f[2], telephony.Unavailable),
			CID:      telephony.Unavailable,
			LAC:      telephony.Unavailable,
			Strength: strengthFor(domain.NetworkWCDMA, atoiOr(f[3], telephony.Unavailable)),
		}, true
	case "LTE":
		// LTE,<ARFCN>,<PCI>,<RSRP>,<RSRQ>,<RXLEV>
		if len(f) < 4 {
			return nil, false
		}

		return telephony.LTECell{
			Identity: unknown,
			EARFCN:   atoiOr(f[1], telephony.Unavailable),
			PCI:      atoiOr(f[2], telephony.Unavailable),
			CI:       telephony.Unavailable,
			TAC:      telephony.Unavailable,
			Strength: strengthFor(domain.NetworkLTE, atoiOr(f[3], telephony.Unavailable)),
		}, true
	default:
		return nil, false
	}
}

// decodeHCSQ parses `^HCSQ: "<sysmode>",<v1>[,<v2>...]` into a technology
// and a dBm reading. Raw values are offsets from the 3GPP floor.
func decodeHCSQ(payload string) (domain.NetworkType, int, bool) {
	f := splitFields(payload)
	if len(f) < 2 {
		return "", 0, false
	}
	values := make([]int, 0, len(f)-1)
	for _, raw := range f[1:] {
		v, err := strconv.Atoi(raw)
		if err != nil || v == 255 {
			v = -1
		}
		values = append(values, v)
	}
	valid := func(i int) bool { return i < len(values) && values[i] >= 0 }

	switch strings.ToUpper(f[0]) {
	case "GSM":
		if !valid(0) {
			return "", 0, false
		}

		return domain.NetworkGSM, -120 + values[0], true
	case "WCDMA":
		// rssi, rscp, ecio
		if !valid(1) {
			return "", 0, false
		}

		return domain.NetworkWCDMA, -120 + values[1], true
	case "LTE":
		// rssi, rsrp, sinr, rsrq
		if !valid(1) {
			return "", 0, false
		}

		return domain.NetworkLTE, -140 + values[1], true
	default:
		return "", 0, false
	}
}

func strengthFor(tech domain.NetworkType, dbm int) telephony.Strength {
	return telephony.Strength{Dbm: dbm, Level: telephony.LevelFromDbm(tech, dbm)}
}

// splitFields splits a comma separated AT payload and strips quotes.
func splitFields(payload string) []string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil
	}
	parts := strings.Split(payload, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}

	return parts
}

func atoiOr(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}

	return v
}

func hexOr(raw string, fallback int) int {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 16, 64)
	if err != nil || v > telephony.Unavailable {
		return fallback
	}

	return int(v)
}
