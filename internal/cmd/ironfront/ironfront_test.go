package ironfront

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/louisbranch/ironfront/internal/operation"
)

const testBatch = `
campaigns:
  - name: ridge
    seed: 17
    force: {infantry: 180, walkers: 3, support: 4, readiness: 0.85, cohesion: 0.8}
    stock: {ammo: 800, fuel: 400, med: 200}
    objective:
      id: obj-ridge
      terrain: plains
      infrastructure: 2
      difficulty: 0.3
      control: 0.1
      fortification: 1.2
      reinforcement: 0.4
      intel: 0.5
      garrison: {infantry: 180, walkers: 3, support: 3, readiness: 0.8, cohesion: 0.75}
    operation:
      type: campaign
      shaping: {axis: direct_pressure, fire_support: preparatory_fire}
      engagement: {posture: deliberate, risk: balanced}
      exploit: {focus: exploit, end_state: seize}
  - name: outpost-raid
    seed: 5
    force: {infantry: 120, walkers: 2, support: 2}
    stock: {ammo: 500, fuel: 250, med: 120}
    objective:
      id: obj-outpost
      terrain: forest
      fortification: 0.8
      intel: 0.4
      garrison: {infantry: 90, walkers: 1, support: 1, readiness: 0.7, cohesion: 0.7}
    operation:
      type: raid
`

func writeBatchFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	return path
}

func TestParseConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("IRONFRONT_BATCH_FILE", "env.yaml")
	t.Setenv("IRONFRONT_WORKERS", "2")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-batch", "flag.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Batch != "flag.yaml" {
		t.Fatalf("batch = %q, want flag.yaml", cfg.Batch)
	}
	if cfg.Workers != 2 {
		t.Fatalf("workers = %d, want 2", cfg.Workers)
	}
}

func TestLoadBatch(t *testing.T) {
	batch, err := LoadBatch(writeBatchFixture(t, testBatch))
	if err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if len(batch.Campaigns) != 2 {
		t.Fatalf("campaigns = %d, want 2", len(batch.Campaigns))
	}
	if batch.Campaigns[0].Operation.Type != "campaign" {
		t.Fatalf("type = %q", batch.Campaigns[0].Operation.Type)
	}
	if batch.Campaigns[1].Objective.Garrison.Infantry != 90 {
		t.Fatalf("garrison infantry = %d, want 90", batch.Campaigns[1].Objective.Garrison.Infantry)
	}
}

func TestLoadBatchRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"empty":        "campaigns: []",
		"no name":      "campaigns:\n  - seed: 1",
		"no objective": "campaigns:\n  - name: x",
		"no type": `
campaigns:
  - name: x
    objective: {id: obj-1}
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadBatch(writeBatchFixture(t, content)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRunBatch(t *testing.T) {
	path := writeBatchFixture(t, testBatch)
	var out, errOut bytes.Buffer

	err := Run(context.Background(), Config{
		Batch:   path,
		Archive: filepath.Join(t.TempDir(), "archive.db"),
		Workers: 2,
	}, &out, &errOut)
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}

	logged := out.String()
	for _, want := range []string{"campaign=ridge", "campaign=outpost-raid", "end_state="} {
		if !strings.Contains(logged, want) {
			t.Fatalf("output missing %q:\n%s", want, logged)
		}
	}
}

func TestRunTracesCampaignSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	path := writeBatchFixture(t, testBatch)
	if err := Run(context.Background(), Config{Batch: path, Workers: 1}, nil, nil); err != nil {
		t.Fatalf("run batch: %v", err)
	}

	names := make(map[string]int)
	for _, span := range exporter.GetSpans() {
		names[span.Name]++
	}
	for _, want := range []string{"campaign.run", "operation.decide", "operation.advance_day", "operation.acknowledge"} {
		if names[want] == 0 {
			t.Errorf("no %q span recorded, got %v", want, names)
		}
	}
	if names["campaign.run"] != 2 {
		t.Errorf("campaign.run spans = %d, want one per batch entry", names["campaign.run"])
	}
}

func TestRunRequiresBatchPath(t *testing.T) {
	err := Run(context.Background(), Config{}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "batch file path is required") {
		t.Fatalf("err = %v, want missing batch error", err)
	}
}

func TestDecisionForDefaults(t *testing.T) {
	var entry operationEntry

	shaping, ok := entry.decisionFor(operation.PhaseContactShaping).(operation.ShapingDecisions)
	if !ok || shaping.Axis == "" || shaping.FireSupport == "" {
		t.Fatalf("default shaping decision = %+v", shaping)
	}
	engagement, ok := entry.decisionFor(operation.PhaseEngagement).(operation.EngagementDecisions)
	if !ok || engagement.Posture == "" || engagement.Risk == "" {
		t.Fatalf("default engagement decision = %+v", engagement)
	}
	exploit, ok := entry.decisionFor(operation.PhaseExploitConsolidate).(operation.ExploitDecisions)
	if !ok || exploit.Focus == "" || exploit.EndState == "" {
		t.Fatalf("default exploit decision = %+v", exploit)
	}
}
