package zipcode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `zip,city,state_id
63101,St. Louis,MO
63102,St. Louis,mo
10001,New York,NY
999,Short,KS
abcde,NotDigits,TX
63101,Duplicate,IL
`

func TestLoad_BuildsIndex(t *testing.T) {
	d, err := Load(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !d.Ready() {
		t.Fatalf("expected directory to be ready")
	}
	// 999 (too short) and abcde (non-digit) are skipped; 63101 dedup keeps MO.
	if got := d.Len(); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
	if st, ok := d.StateOf("63101"); !ok || st != "MO" {
		t.Fatalf("StateOf(63101) = %q, %v", st, ok)
	}
	// States are normalized to upper case.
	if st, _ := d.StateOf("63102"); st != "MO" {
		t.Fatalf("expected normalized state MO, got %q", st)
	}
}

func TestLoad_AlternateColumnNames(t *testing.T) {
	d, err := Load(strings.NewReader("zipcode,state\n63101,MO\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !d.IsInRegion("63101", "MO") {
		t.Fatalf("expected 63101 in MO")
	}
}

func TestLoad_MissingColumns(t *testing.T) {
	if _, err := Load(strings.NewReader("foo,bar\n1,2\n")); err == nil {
		t.Fatalf("expected header error")
	}
}

func TestLoad_EmptyDataset(t *testing.T) {
	d, err := Load(strings.NewReader("zip,state_id\n"))
	if err == nil {
		t.Fatalf("expected error for empty dataset")
	}
	if d.Ready() {
		t.Fatalf("empty dataset must not be ready")
	}
	if _, ok := d.StateOf("63101"); ok {
		t.Fatalf("not-ready directory must answer negatively")
	}
}

func TestIsInRegion(t *testing.T) {
	d, err := Load(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := []struct {
		zip, state string
		want       bool
	}{
		{"63101", "MO", true},
		{"63101", "mo", true}, // case-insensitive region code
		{"10001", "MO", false},
		{"10001", "NY", true},
		{"00000", "MO", false}, // unknown zip
	}
	for _, tc := range cases {
		if got := d.IsInRegion(tc.zip, tc.state); got != tc.want {
			t.Fatalf("IsInRegion(%q, %q) = %v, want %v", tc.zip, tc.state, got, tc.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zips.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	d, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !d.Ready() || d.Len() == 0 {
		t.Fatalf("expected loaded directory")
	}

	// Missing file → not ready, error surfaced.
	d2, err := LoadFile(filepath.Join(dir, "missing.csv"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if d2.Ready() {
		t.Fatalf("missing file must yield not-ready directory")
	}
}

func TestNilDirectory(t *testing.T) {
	var d *Directory
	if d.Ready() {
		t.Fatalf("nil directory must not be ready")
	}
	if d.Len() != 0 {
		t.Fatalf("nil directory length must be 0")
	}
	if d.IsInRegion("63101", "MO") {
		t.Fatalf("nil directory must fail closed")
	}
}
