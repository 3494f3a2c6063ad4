// Package zipcode provides the ZIP→state reference directory used for the
// region gate. The directory is loaded once at startup from a delimited
// reference file (~40k rows) into a hash-indexed map and is immutable
// afterwards, which makes it safe for concurrent reads without locking.
//
// A directory that failed to load reports Ready() == false; callers must
// treat that as "region-gated operations unavailable" (fail closed).
package zipcode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotReady is returned by loaders when the reference dataset could not be
// read; the engine refuses region-gated operations until the directory is
// ready.
var ErrNotReady = errors.New("zip directory not ready")

// Directory maps five-digit ZIP codes to two-letter state codes.
type Directory struct {
	byZip map[string]string
	ready bool
}

// zip column candidates, checked in order against the CSV header.
var zipColumns = []string{"zip", "zipcode", "zip_code"}

// state column candidates. "state_id" matches the simplemaps US ZIP dataset.
var stateColumns = []string{"state_id", "state", "state_abbr"}

// LoadFile reads the reference CSV at path and builds the directory.
// A missing or malformed file yields a not-ready directory and an error.
func LoadFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Directory{}, fmt.Errorf("zipcode: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load builds the directory from CSV data with a header row naming the ZIP
// and state columns. Rows with a malformed ZIP or state are skipped; one
// entry is kept per ZIP (first occurrence wins).
func Load(r io.Reader) (*Directory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows; validated per field below

	header, err := cr.Read()
	if err != nil {
		return &Directory{}, fmt.Errorf("zipcode: read header: %w", err)
	}
	zipIdx := columnIndex(header, zipColumns)
	stateIdx := columnIndex(header, stateColumns)
	if zipIdx < 0 || stateIdx < 0 {
		return &Directory{}, fmt.Errorf("zipcode: header %v lacks zip/state columns", header)
	}

	byZip := make(map[string]string, 42000)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &Directory{}, fmt.Errorf("zipcode: read row: %w", err)
		}
		if zipIdx >= len(rec) || stateIdx >= len(rec) {
			continue
		}
		zip := strings.TrimSpace(rec[zipIdx])
		state := strings.ToUpper(strings.TrimSpace(rec[stateIdx]))
		if !validZip(zip) || len(state) != 2 {
			continue
		}
		if _, dup := byZip[zip]; dup {
			continue
		}
		byZip[zip] = state
	}
	if len(byZip) == 0 {
		return &Directory{}, errors.New("zipcode: dataset contains no usable rows")
	}
	return &Directory{byZip: byZip, ready: true}, nil
}

// Ready reports whether the reference dataset finished loading. A not-ready
// directory answers every lookup negatively.
func (d *Directory) Ready() bool { return d != nil && d.ready }

// Len returns the number of loaded entries.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byZip)
}

// StateOf returns the two-letter state code for zip. ok is false for unknown
// ZIPs and for a directory that is not ready.
func (d *Directory) StateOf(zip string) (state string, ok bool) {
	if !d.Ready() {
		return "", false
	}
	state, ok = d.byZip[zip]
	return state, ok
}

// IsInRegion reports whether zip maps to the given state code. Unknown ZIPs
// and a not-ready directory both report false.
func (d *Directory) IsInRegion(zip, state string) bool {
	got, ok := d.StateOf(zip)
	return ok && strings.EqualFold(got, state)
}

// columnIndex returns the index of the first header field matching any of
// the candidate names (case-insensitive), or -1.
func columnIndex(header, candidates []string) int {
	for _, want := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

// validZip reports whether s is exactly five ASCII digits.
func validZip(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
