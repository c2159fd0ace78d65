package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadHeuristicsDefaults(t *testing.T) {
	rules, err := LoadHeuristics("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.MinSheetRows != 20 || rules.MetadataScanRows != 15 || rules.PassMark != 60 {
		t.Fatalf("unexpected defaults: %+v", rules)
	}
}

func TestLoadHeuristicsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte("min_sheet_rows: 10\nmetadata_scan_rows: 8\npass_mark: 50\nheader_signature:\n  - name\n  - email\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadHeuristics(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.MinSheetRows != 10 || rules.MetadataScanRows != 8 || rules.PassMark != 50 {
		t.Fatalf("unexpected rules: %+v", rules)
	}
	if len(rules.HeaderSignature) != 2 {
		t.Fatalf("unexpected signature: %v", rules.HeaderSignature)
	}
}

func TestLoadHeuristicsRejectsNonPositive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("min_sheet_rows: 0\nmetadata_scan_rows: 5\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if _, err := LoadHeuristics(path); err == nil {
		t.Fatal("expected error for non-positive thresholds")
	}
}
