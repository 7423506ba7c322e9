package scenario

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if !cfg.Assertions {
		t.Fatal("assertions should default to enabled")
	}
	if cfg.Verbose {
		t.Fatal("verbose should default to disabled")
	}
}

func TestParseConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("IRONFRONT_SCENARIO_FILE", "env.lua")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-scenario", "flag.lua", "-assert=false"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Scenario != "flag.lua" {
		t.Fatalf("scenario = %q, want flag.lua", cfg.Scenario)
	}
	if cfg.Assertions {
		t.Fatal("assert flag should disable assertions")
	}
}

func TestRunRequiresScenarioPath(t *testing.T) {
	err := Run(context.Background(), Config{}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "scenario path is required") {
		t.Fatalf("err = %v, want missing scenario error", err)
	}
}

func TestRunExecutesScenarioFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raid.lua")
	script := `
local scene = Scenario.new("raid check")
scene:seed(5)
scene:objective({
	id = "obj-outpost",
	terrain = "forest",
	fortification = 0.8,
	garrison = {infantry = 60, readiness = 0.7, cohesion = 0.7},
})
scene:force({infantry = 120, walkers = 2, support = 2})
scene:stock({ammo = 500, fuel = 250, med = 120})
scene:start_raid("obj-outpost")
scene:expect_losses_at_most(124)
return scene
`
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}

	var out, errOut bytes.Buffer
	if err := Run(context.Background(), Config{Scenario: path, Assertions: true}, &out, &errOut); err != nil {
		t.Fatalf("run scenario: %v", err)
	}
}
