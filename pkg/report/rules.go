package report

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Heuristics are the tunable thresholds of the coach report parser. The label
// and column matching rules themselves are fixed: downstream reports follow
// the same loose conventions and the matching must stay in lockstep with them.
type Heuristics struct {
	// MinSheetRows is the floor below which a sheet is not considered a
	// real report.
	MinSheetRows int `yaml:"min_sheet_rows"`
	// MetadataScanRows bounds the label search for the metadata block at
	// the top of a sheet.
	MetadataScanRows int `yaml:"metadata_scan_rows"`
	// HeaderSignature lists the substrings that together identify the
	// trainee table header row.
	HeaderSignature []string `yaml:"header_signature"`
	// PassMark is the qualifier score at or above which a trainee counts
	// as passed.
	PassMark float64 `yaml:"pass_mark"`
}

func DefaultHeuristics() Heuristics {
	return Heuristics{
		MinSheetRows:     20,
		MetadataScanRows: 15,
		HeaderSignature:  []string{"name", "email", "schedule adherence"},
		PassMark:         60,
	}
}

func LoadHeuristics(path string) (Heuristics, error) {
	if path == "" {
		return DefaultHeuristics(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultHeuristics(), err
	}

	var h Heuristics
	if err := yaml.Unmarshal(content, &h); err != nil {
		return Heuristics{}, err
	}

	if h.MinSheetRows <= 0 || h.MetadataScanRows <= 0 {
		return Heuristics{}, errors.New("parser heuristics must be positive")
	}
	if len(h.HeaderSignature) == 0 {
		h.HeaderSignature = DefaultHeuristics().HeaderSignature
	}
	if h.PassMark <= 0 {
		h.PassMark = DefaultHeuristics().PassMark
	}

	return h, nil
}
