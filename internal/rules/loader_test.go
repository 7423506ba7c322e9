package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLoadsAndValidates(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}

	for _, role := range []string{"infantry", "walker", "support"} {
		if _, ok := tables.Roles[role]; !ok {
			t.Errorf("default roles table missing %q", role)
		}
	}
	for _, class := range []string{"ammo", "fuel", "med"} {
		if _, ok := tables.SupplyClasses[class]; !ok {
			t.Errorf("default supply classes table missing %q", class)
		}
	}
	for _, op := range []string{"raid", "siege", "campaign"} {
		if _, ok := tables.OperationTypes[op]; !ok {
			t.Errorf("default operation types table missing %q", op)
		}
	}
	if tables.Constants.ManpowerPerBattalion <= 0 {
		t.Errorf("manpower per battalion = %v, want positive", tables.Constants.ManpowerPerBattalion)
	}
}

func TestDecisionLookup(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}

	opt, err := tables.Decision("aggressive")
	if err != nil {
		t.Fatalf("Decision(aggressive) returned error: %v", err)
	}
	if opt.Loss <= 1 {
		t.Errorf("aggressive loss multiplier = %v, want > 1", opt.Loss)
	}

	if _, err := tables.Decision("banzai"); !errors.Is(err, ErrUnknownDecision) {
		t.Fatalf("Decision(banzai) error = %v, want ErrUnknownDecision", err)
	}
}

func TestLoadDirOverrides(t *testing.T) {
	dir := t.TempDir()
	override := `{
  "ammo": {"progress_penalty": 0.5, "casualty_multiplier": 2.0},
  "fuel": {"progress_penalty": 0.2, "casualty_multiplier": 1.15},
  "med": {"progress_penalty": 0.1, "casualty_multiplier": 1.2}
}`
	if err := os.WriteFile(filepath.Join(dir, "supply_classes.json"), []byte(override), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}

	tables, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir returned error: %v", err)
	}
	if got := tables.SupplyClasses["ammo"].CasualtyMultiplier; got != 2.0 {
		t.Errorf("ammo casualty multiplier = %v, want 2.0", got)
	}
	// Non-overridden tables keep the embedded defaults.
	if _, ok := tables.Terrain["urban"]; !ok {
		t.Errorf("terrain table lost embedded default %q", "urban")
	}
}

func TestLoadDirRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	override := `{
  "ammo": {"progress_penalty": 0.5, "casualty_multiplier": 2.0, "typo_field": 1},
  "fuel": {"progress_penalty": 0.2, "casualty_multiplier": 1.15},
  "med": {"progress_penalty": 0.1, "casualty_multiplier": 1.2}
}`
	if err := os.WriteFile(filepath.Join(dir, "supply_classes.json"), []byte(override), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}

	if _, err := LoadDir(dir); err == nil {
		t.Fatal("LoadDir accepted an unknown field, want error")
	}
}

func TestLoadDirRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	override := `{
  "ammo": {"progress_penalty": 0.5, "casualty_multiplier": 0.5},
  "fuel": {"progress_penalty": 0.2, "casualty_multiplier": 1.15},
  "med": {"progress_penalty": 0.1, "casualty_multiplier": 1.2}
}`
	if err := os.WriteFile(filepath.Join(dir, "supply_classes.json"), []byte(override), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}

	if _, err := LoadDir(dir); err == nil {
		t.Fatal("LoadDir accepted a casualty multiplier below 1, want error")
	}
}
