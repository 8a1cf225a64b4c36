package telephony

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FixtureFile is the YAML layout of a recorded radio state.
type FixtureFile struct {
	Default             FixtureRadioState          `yaml:"default"`
	SubscriptionsDenied bool                       `yaml:"subscriptions_denied"`
	Subscriptions       []FixtureSubscriptionState `yaml:"subscriptions"`
}

type FixtureRadioState struct {
	AccessDenied bool          `yaml:"access_denied"`
	Cells        []FixtureCell `yaml:"cells"`
}

type FixtureSubscriptionState struct {
	ID                int    `yaml:"id"`
	Name              string `yaml:"name"`
	FixtureRadioState `yaml:",inline"`
}

// FixtureCell is a flat record covering every technology; Type selects which
// identity fields apply. Missing dbm and legacy codes decode as Unavailable.
type FixtureCell struct {
	Type       string `yaml:"type"`
	Registered bool   `yaml:"registered"`
	Dbm        *int   `yaml:"dbm"`
	Level      int    `yaml:"level"`

	MCC        string `yaml:"mcc"`
	MNC        string `yaml:"mnc"`
	LegacyMCC  *int   `yaml:"legacy_mcc"`
	LegacyMNC  *int   `yaml:"legacy_mnc"`
	AlphaLong  string `yaml:"alpha_long"`
	AlphaShort string `yaml:"alpha_short"`

	LAC     int   `yaml:"lac"`
	CID     int   `yaml:"cid"`
	ARFCN   int   `yaml:"arfcn"`
	BSIC    int   `yaml:"bsic"`
	UARFCN  int   `yaml:"uarfcn"`
	PSC     int   `yaml:"psc"`
	TAC     int   `yaml:"tac"`
	CI      int   `yaml:"ci"`
	PCI     int   `yaml:"pci"`
	EARFCN  int   `yaml:"earfcn"`
	NCI     int64 `yaml:"nci"`
	NRARFCN int   `yaml:"nrarfcn"`

	SystemID      int `yaml:"system_id"`
	NetworkID     int `yaml:"network_id"`
	BaseStationID int `yaml:"base_station_id"`
}

// Cell converts the record into its typed variant.
func (f FixtureCell) Cell() Cell {
	strength := Strength{Dbm: intOr(f.Dbm, Unavailable), Level: f.Level}
	id := PLMN{
		MCC:        f.MCC,
		MNC:        f.MNC,
		LegacyMCC:  intOr(f.LegacyMCC, Unavailable),
		LegacyMNC:  intOr(f.LegacyMNC, Unavailable),
		AlphaLong:  f.AlphaLong,
		AlphaShort: f.AlphaShort,
	}

	switch strings.ToLower(strings.TrimSpace(f.Type)) {
	case "gsm":
		return GSMCell{Identity: id, LAC: f.LAC, CID: f.CID, ARFCN: f.ARFCN, BSIC: f.BSIC, Strength: strength, Registered: f.Registered}
	case "wcdma", "umts":
		return WCDMACell{Identity: id, LAC: f.LAC, CID: f.CID, UARFCN: f.UARFCN, PSC: f.PSC, Strength: strength, Registered: f.Registered}
	case "lte":
		return LTECell{Identity: id, TAC: f.TAC, CI: f.CI, PCI: f.PCI, EARFCN: f.EARFCN, Strength: strength, Registered: f.Registered}
	case "cdma":
		return CDMACell{
			SystemID:      f.SystemID,
			NetworkID:     f.NetworkID,
			BaseStationID: f.BaseStationID,
			AlphaLong:     f.AlphaLong,
			AlphaShort:    f.AlphaShort,
			Strength:      strength,
			Registered:    f.Registered,
		}
	case "nr", "5g", "5g nr":
		return NRCell{Identity: id, TAC: f.TAC, NCI: f.NCI, PCI: f.PCI, NRARFCN: f.NRARFCN, Strength: strength, Registered: f.Registered}
	default:
		return OtherCell{Type: f.Type, Strength: strength, Registered: f.Registered}
	}
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}

	return *v
}

// FixtureSource replays a YAML fixture. The file is re-read on every call so
// edits show up on the next poll.
type FixtureSource struct {
	path string
}

func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{path: filepath.Clean(path)}
}

func (s *FixtureSource) load() (FixtureFile, error) {
	// #nosec G304 -- fixture path comes from user config or CLI flag.
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return FixtureFile{}, fmt.Errorf("read fixture: %w", err)
	}
	var file FixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return FixtureFile{}, fmt.Errorf("decode fixture yaml: %w", err)
	}

	return file, nil
}

// Radio returns the default radio of the fixture.
func (s *FixtureSource) Radio() *FixtureRadio {
	return &FixtureRadio{source: s}
}

func (s *FixtureSource) ActiveSubscriptions(ctx context.Context) ([]Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	if file.SubscriptionsDenied {
		return nil, fmt.Errorf("list subscriptions: %w", ErrAccessDenied)
	}
	out := make([]Subscription, 0, len(file.Subscriptions))
	for _, sub := range file.Subscriptions {
		out = append(out, Subscription{ID: sub.ID, Name: sub.Name})
	}

	return out, nil
}

func (s *FixtureSource) RadioForSubscription(sub Subscription) (Radio, error) {
	id := sub.ID

	return &FixtureRadio{source: s, subscription: &id}, nil
}

// FixtureRadio serves cells from one radio section of a fixture.
type FixtureRadio struct {
	source       *FixtureSource
	subscription *int
}

func (r *FixtureRadio) Name() string {
	if r.subscription == nil {
		return "fixture:default"
	}

	return fmt.Sprintf("fixture:sub%d", *r.subscription)
}

func (r *FixtureRadio) AllCellInfo(ctx context.Context) ([]Cell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := r.source.load()
	if err != nil {
		return nil, err
	}

	state := file.Default
	if r.subscription != nil {
		found := false
		for _, sub := range file.Subscriptions {
			if sub.ID == *r.subscription {
				state = sub.FixtureRadioState
				found = true

				break
			}
		}
		if !found {
			return nil, nil
		}
	}
	if state.AccessDenied {
		return nil, fmt.Errorf("%s: %w", r.Name(), ErrAccessDenied)
	}

	cells := make([]Cell, 0, len(state.Cells))
	for _, c := range state.Cells {
		cells = append(cells, c.Cell())
	}

	return cells, nil
}
