package telephony

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/detekto/cellwatch/internal/domain"
)

func TestParserParse(t *testing.T) {
	modern := Parser{APILevel: 34}
	legacy := Parser{APILevel: 27}
	jio := PLMN{MCC: "405", MNC: "860", LegacyMCC: 405, LegacyMNC: 860}

	tests := []struct {
		name   string
		parser Parser
		cell   Cell
		want   domain.SignalInfo
		wantOK bool
	}{
		{
			name:   "registered lte from table",
			parser: modern,
			cell:   LTECell{Identity: jio, Strength: Strength{Dbm: -95, Level: 3}, Registered: true},
			want: domain.SignalInfo{
				OperatorName: "Jio", NetworkType: domain.NetworkLTE, SignalStrengthDbm: -95,
				SignalStrengthPercent: 75, IsRegistered: true, OperatorCode: "405-860",
			},
			wantOK: true,
		},
		{
			name:   "gsm without identity",
			parser: modern,
			cell:   GSMCell{Identity: UnknownPLMN(), Strength: Strength{Dbm: -101, Level: 2}},
			want: domain.SignalInfo{
				OperatorName: domain.UnknownOperatorName, NetworkType: domain.NetworkGSM,
				SignalStrengthDbm: -101, SignalStrengthPercent: 50,
			},
			wantOK: true,
		},
		{
			name:   "legacy integer identity",
			parser: legacy,
			cell:   WCDMACell{Identity: PLMN{LegacyMCC: 404, LegacyMNC: 10}, Strength: Strength{Dbm: -90, Level: 4}},
			want: domain.SignalInfo{
				OperatorName: "Airtel", NetworkType: domain.NetworkWCDMA, SignalStrengthDbm: -90,
				SignalStrengthPercent: 100, OperatorCode: "404-10",
			},
			wantOK: true,
		},
		{
			name:   "legacy ignores strings",
			parser: legacy,
			cell:   WCDMACell{Identity: PLMN{MCC: "404", MNC: "10", LegacyMCC: Unavailable, LegacyMNC: 10}, Strength: Strength{Dbm: -90, Level: 4}},
			want: domain.SignalInfo{
				OperatorName: domain.UnknownOperatorName, NetworkType: domain.NetworkWCDMA,
				SignalStrengthDbm: -90, SignalStrengthPercent: 100,
			},
			wantOK: true,
		},
		{
			name:   "broadcast name wins",
			parser: modern,
			cell:   LTECell{Identity: PLMN{MCC: "405", MNC: "860", AlphaLong: "Reliance Jio"}, Strength: Strength{Dbm: -100, Level: 2}},
			want: domain.SignalInfo{
				OperatorName: "Reliance Jio", NetworkType: domain.NetworkLTE, SignalStrengthDbm: -100,
				SignalStrengthPercent: 50, OperatorCode: "405-860",
			},
			wantOK: true,
		},
		{
			name:   "cdma names gated by api level",
			parser: legacy,
			cell:   CDMACell{SystemID: 4, NetworkID: 12, AlphaLong: "Carrier", Strength: Strength{Dbm: -80, Level: 3}},
			want: domain.SignalInfo{
				OperatorName: "Operator (CDMA-4-12)", NetworkType: domain.NetworkCDMA, SignalStrengthDbm: -80,
				SignalStrengthPercent: 75, OperatorCode: "CDMA-4-12",
			},
			wantOK: true,
		},
		{
			name:   "cdma names on modern api",
			parser: modern,
			cell:   CDMACell{SystemID: 4, NetworkID: 12, AlphaLong: "Carrier", Strength: Strength{Dbm: -80, Level: 3}},
			want: domain.SignalInfo{
				OperatorName: "Carrier", NetworkType: domain.NetworkCDMA, SignalStrengthDbm: -80,
				SignalStrengthPercent: 75, OperatorCode: "CDMA-4-12",
			},
			wantOK: true,
		},
		{
			name:   "nr on modern api",
			parser: modern,
			cell:   NRCell{Identity: PLMN{MCC: "405", MNC: "860"}, Strength: Strength{Dbm: -100, Level: 2}},
			want: domain.SignalInfo{
				OperatorName: "Jio", NetworkType: domain.NetworkNR, SignalStrengthDbm: -100,
				SignalStrengthPercent: 50, OperatorCode: "405-860",
			},
			wantOK: true,
		},
		{
			name:   "nr without identity degrades to separator",
			parser: modern,
			cell:   NRCell{Strength: Strength{Dbm: -100, Level: 2}},
			want: domain.SignalInfo{
				OperatorName: domain.UnknownOperatorName, NetworkType: domain.NetworkNR, SignalStrengthDbm: -100,
				SignalStrengthPercent: 50, OperatorCode: "-",
			},
			wantOK: true,
		},
		{
			name:   "nr below api 29 is absent",
			parser: Parser{APILevel: APILevelP},
			cell:   NRCell{Identity: PLMN{MCC: "405", MNC: "860"}, Strength: Strength{Dbm: -100, Level: 2}},
		},
		{
			name:   "other technology is absent",
			parser: modern,
			cell:   OtherCell{Type: "TDSCDMA", Strength: Strength{Dbm: -90, Level: 3}},
		},
	}

	for _, tt := range tests {
		got, ok := tt.parser.Parse(tt.cell)
		if ok != tt.wantOK {
			t.Fatalf("%s: ok=%v want %v", tt.name, ok, tt.wantOK)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("%s: unexpected signal (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestParserParseAllDropsUnmeasured(t *testing.T) {
	p := Parser{APILevel: 34}
	cells := []Cell{
		LTECell{Identity: PLMN{MCC: "405", MNC: "860"}, Strength: Strength{Dbm: Unavailable, Level: 0}},
		LTECell{Identity: PLMN{MCC: "405", MNC: "860"}, Strength: Strength{Dbm: 0, Level: 0}},
		GSMCell{Identity: PLMN{MCC: "404", MNC: "10"}, Strength: Strength{Dbm: -97, Level: 3}},
		OtherCell{Type: "IWLAN", Strength: Strength{Dbm: -60, Level: 4}},
	}

	got := p.ParseAll(cells)
	if len(got) != 1 || got[0].OperatorCode != "404-10" {
		t.Fatalf("expected only the measured gsm cell, got %+v", got)
	}
}

type staticNames map[string]string

func (s staticNames) Lookup(code string) (string, bool) {
	name, ok := s[code]

	return name, ok
}

func TestParserUsesLearnedNames(t *testing.T) {
	p := Parser{APILevel: 34, Names: staticNames{"999-01": "Test Mobile"}}
	got, ok := p.Parse(LTECell{Identity: PLMN{MCC: "999", MNC: "01"}, Strength: Strength{Dbm: -100, Level: 2}})
	if !ok || got.OperatorName != "Test Mobile" {
		t.Fatalf("expected learned name, got %+v", got)
	}
}

func TestParserBroadcastName(t *testing.T) {
	p := Parser{APILevel: 34}
	tests := []struct {
		name   string
		cell   Cell
		want   domain.OperatorSighting
		wantOK bool
	}{
		{
			name:   "long name",
			cell:   LTECell{Identity: PLMN{MCC: "999", MNC: "01", AlphaLong: "Test Mobile", AlphaShort: "TM"}},
			want:   domain.OperatorSighting{Code: "999-01", Name: "Test Mobile"},
			wantOK: true,
		},
		{
			name:   "short name only",
			cell:   GSMCell{Identity: PLMN{MCC: "999", MNC: "01", AlphaShort: "TM"}},
			want:   domain.OperatorSighting{Code: "999-01", Name: "TM"},
			wantOK: true,
		},
		{name: "no broadcast", cell: LTECell{Identity: PLMN{MCC: "405", MNC: "860"}}},
		{name: "no code", cell: LTECell{Identity: PLMN{AlphaLong: "Orphan"}}},
		{name: "nr without identity", cell: NRCell{Identity: PLMN{AlphaLong: "X"}}},
		{name: "cdma is not learned", cell: CDMACell{AlphaLong: "X"}},
	}
	for _, tt := range tests {
		got, ok := p.BroadcastName(tt.cell)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("%s: got %+v %v want %+v %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLevelFromDbm(t *testing.T) {
	tests := []struct {
		tech domain.NetworkType
		dbm  int
		want int
	}{
		{tech: domain.NetworkLTE, dbm: -90, want: 4},
		{tech: domain.NetworkLTE, dbm: -105, want: 3},
		{tech: domain.NetworkLTE, dbm: -110, want: 2},
		{tech: domain.NetworkLTE, dbm: -125, want: 1},
		{tech: domain.NetworkLTE, dbm: -130, want: 0},
		{tech: domain.NetworkGSM, dbm: -89, want: 4},
		{tech: domain.NetworkGSM, dbm: -100, want: 2},
		{tech: domain.NetworkWCDMA, dbm: -112, want: 0},
		{tech: domain.NetworkNR, dbm: -95, want: 2},
		{tech: domain.NetworkLTE, dbm: Unavailable, want: 0},
		{tech: domain.NetworkType("IWLAN"), dbm: -60, want: 0},
	}
	for _, tt := range tests {
		if got := LevelFromDbm(tt.tech, tt.dbm); got != tt.want {
			t.Fatalf("%s %d dBm: got %d want %d", tt.tech, tt.dbm, got, tt.want)
		}
	}
}
