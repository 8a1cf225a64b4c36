package radio

import (
	"testing"

	"github.com/detekto/cellwatch/internal/domain"
	"github.com/detekto/cellwatch/internal/telephony"
)

func TestDecodeCOPS(t *testing.T) {
	tests := []struct {
		payload    string
		wantOper   string
		wantFormat int
		wantAct    int
		wantOK     bool
	}{
		{payload: `0,2,"40586",7`, wantOper: "40586", wantFormat: 2, wantAct: 7, wantOK: true},
		{payload: `0,0,"Jio 4G",7`, wantOper: "Jio 4G", wantFormat: 0, wantAct: 7, wantOK: true},
		{payload: `1,2,"23430"`, wantOper: "23430", wantFormat: 2, wantAct: -1, wantOK: true},
		{payload: `0`},
		{payload: `0,x,"1"`},
	}
	for _, tt := range tests {
		format, oper, act, ok := decodeCOPS(tt.payload)
		if ok != tt.wantOK || oper != tt.wantOper || (ok && (format != tt.wantFormat || act != tt.wantAct)) {
			t.Fatalf("%q: got %d %q %d %v", tt.payload, format, oper, act, ok)
		}
	}
}

func TestOperatorSplitsNumericPLMN(t *testing.T) {
	op := Operator{Numeric: "405860"}
	if op.MCC() != "405" || op.MNC() != "860" {
		t.Fatalf("unexpected split %q %q", op.MCC(), op.MNC())
	}
	if (Operator{Numeric: "40"}).MCC() != "" {
		t.Fatalf("expected short numeric to yield no mcc")
	}
}

func TestDecodeMONSC(t *testing.T) {
	serving, ok, err := decodeMONSC(`LTE,405,86,1650,1A2B3C4,301,4B1,-97,-11,-68`)
	if err != nil || !ok {
		t.Fatalf("decode lte: ok=%v err=%v", ok, err)
	}
	lte, isLTE := serving.cell.(telephony.LTECell)
	if !isLTE || serving.mcc != "405" || serving.mnc != "86" {
		t.Fatalf("unexpected serving cell %+v", serving)
	}
	if lte.CI != 0x1A2B3C4 || lte.TAC != 0x4B1 || lte.PCI != 301 || lte.EARFCN != 1650 {
		t.Fatalf("unexpected lte identity %+v", lte)
	}
	if lte.Strength.Dbm != -97 || lte.Strength.Level != 3 {
		t.Fatalf("unexpected lte strength %+v", lte.Strength)
	}

	serving, ok, err = decodeMONSC(`GSM,404,10,3,62,37,2F1A,0C1D,-79,0,1`)
	if err != nil || !ok || serving.tech != domain.NetworkGSM {
		t.Fatalf("decode gsm: %+v ok=%v err=%v", serving, ok, err)
	}
	if gsm := serving.cell.(telephony.GSMCell); gsm.CID != 0x2F1A || gsm.Strength.Level != 4 {
		t.Fatalf("unexpected gsm cell %+v", gsm)
	}

	serving, ok, err = decodeMONSC(`NR,405,860,627264,1,1A2B3C4D5,101,4B1,-92,-11,15`)
	if err != nil || !ok || serving.tech != domain.NetworkNR {
		t.Fatalf("decode nr: %+v ok=%v err=%v", serving, ok, err)
	}
	if nr := serving.cell.(telephony.NRCell); nr.NCI != 0x1A2B3C4D5 || nr.Strength.Dbm != -92 {
		t.Fatalf("unexpected nr cell %+v", nr)
	}

	if _, ok, err := decodeMONSC("NONE"); ok || err != nil {
		t.Fatalf("expected NONE to be skipped, ok=%v err=%v", ok, err)
	}
	if _, _, err := decodeMONSC("LTE,405"); err == nil {
		t.Fatalf("expected short line error")
	}
}

func TestDecodeMONNC(t *testing.T) {
	cell, ok := decodeMONNC(`LTE,1650,12,-109,-15,-78`)
	if !ok {
		t.Fatalf("expected lte neighbor")
	}
	lte := cell.(telephony.LTECell)
	if lte.PCI != 12 || lte.Strength.Dbm != -109 || lte.Registered {
		t.Fatalf("unexpected neighbor %+v", lte)
	}
	if lte.Identity.MCC != "" || lte.Identity.LegacyMCC != telephony.Unavailable {
		t.Fatalf("expected neighbor without plmn, got %+v", lte.Identity)
	}
	if _, ok := decodeMONNC("NONE"); ok {
		t.Fatalf("expected NONE to be skipped")
	}
	if cell, ok := decodeMONNC(`WCDMA,10700,220,-95,-8`); !ok || cell.Technology() != domain.NetworkWCDMA {
		t.Fatalf("expected wcdma neighbor, got %+v", cell)
	}
}

func TestDecodeHCSQ(t *testing.T) {
	tests := []struct {
		payload  string
		wantTech domain.NetworkType
		wantDbm  int
		wantOK   bool
	}{
		{payload: `"LTE",50,43,90,20`, wantTech: domain.NetworkLTE, wantDbm: -97, wantOK: true},
		{payload: `"WCDMA",30,25,40`, wantTech: domain.NetworkWCDMA, wantDbm: -95, wantOK: true},
		{payload: `"GSM",41`, wantTech: domain.NetworkGSM, wantDbm: -79, wantOK: true},
		{payload: `"LTE",50,255,90,20`},
		{payload: `"NOSERVICE"`},
	}
	for _, tt := range tests {
		tech, dbm, ok := decodeHCSQ(tt.payload)
		if ok != tt.wantOK || tech != tt.wantTech || dbm != tt.wantDbm {
			t.Fatalf("%q: got %q %d %v", tt.payload, tech, dbm, ok)
		}
	}
}
