package telephony

import (
	"math"

	"github.com/detekto/cellwatch/internal/domain"
)

// Unavailable marks an integer field the radio did not report.
const Unavailable = math.MaxInt32

// Cell is one raw measurement as reported by a radio. The concrete type
// carries the technology-specific identity.
type Cell interface {
	Technology() domain.NetworkType
	Signal() Strength
	IsRegistered() bool
}

// PLMN is the carrier identity of a 3GPP cell. MCC and MNC are the string
// forms; LegacyMCC and LegacyMNC are the integer forms older radios report.
type PLMN struct {
	MCC        string
	MNC        string
	LegacyMCC  int
	LegacyMNC  int
	AlphaLong  string
	AlphaShort string
}

// UnknownPLMN has no identity at all, as reported for neighbor cells.
func UnknownPLMN() PLMN {
	return PLMN{LegacyMCC: Unavailable, LegacyMNC: Unavailable}
}

// Strength is the reported signal in dBm and the radio's 0..4 level.
type Strength struct {
	Dbm   int
	Level int
}

type GSMCell struct {
	Identity   PLMN
	LAC        int
	CID        int
	ARFCN      int
	BSIC       int
	Strength   Strength
	Registered bool
}

type WCDMACell struct {
	Identity   PLMN
	LAC        int
	CID        int
	UARFCN     int
	PSC        int
	Strength   Strength
	Registered bool
}

type LTECell struct {
	Identity   PLMN
	TAC        int
	CI         int
	PCI        int
	EARFCN     int
	Strength   Strength
	Registered bool
}

// CDMACell has no PLMN; the carrier is identified by system and network ids.
type CDMACell struct {
	SystemID      int
	NetworkID     int
	BaseStationID int
	AlphaLong     string
	AlphaShort    string
	Strength      Strength
	Registered    bool
}

type NRCell struct {
	Identity   PLMN
	TAC        int
	NCI        int64
	PCI        int
	NRARFCN    int
	Strength   Strength
	Registered bool
}

// OtherCell is any technology the pipeline does not model (TD-SCDMA, IWLAN).
type OtherCell struct {
	Type       string
	Strength   Strength
	Registered bool
}

func (c GSMCell) Technology() domain.NetworkType   { return domain.NetworkGSM }
func (c WCDMACell) Technology() domain.NetworkType { return domain.NetworkWCDMA }
func (c LTECell) Technology() domain.NetworkType   { return domain.NetworkLTE }
func (c CDMACell) Technology() domain.NetworkType  { return domain.NetworkCDMA }
func (c NRCell) Technology() domain.NetworkType    { return domain.NetworkNR }
func (c OtherCell) Technology() domain.NetworkType { return domain.NetworkType(c.Type) }

func (c GSMCell) Signal() Strength   { return c.Strength }
func (c WCDMACell) Signal() Strength { return c.Strength }
func (c LTECell) Signal() Strength   { return c.Strength }
func (c CDMACell) Signal() Strength  { return c.Strength }
func (c NRCell) Signal() Strength    { return c.Strength }
func (c OtherCell) Signal() Strength { return c.Strength }

func (c GSMCell) IsRegistered() bool   { return c.Registered }
func (c WCDMACell) IsRegistered() bool { return c.Registered }
func (c LTECell) IsRegistered() bool   { return c.Registered }
func (c CDMACell) IsRegistered() bool  { return c.Registered }
func (c NRCell) IsRegistered() bool    { return c.Registered }
func (c OtherCell) IsRegistered() bool { return c.Registered }
