package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gyaneshwarpardhi/orderflow/internal/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orderflow.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoaderDefaults(t *testing.T) {
	path := writeConfig(t, "version: v1\n")
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := l.Config()
	if cfg.SourceService != "order-service" {
		t.Errorf("source service default = %q", cfg.SourceService)
	}
	if cfg.Engine.StageWorkers != 8 || cfg.Engine.QueueDepth != 1000 {
		t.Errorf("engine defaults wrong: %+v", cfg.Engine)
	}
	if cfg.Engine.MaxRetries != 3 {
		t.Errorf("max retries default = %d", cfg.Engine.MaxRetries)
	}
	if cfg.Kafka.ConsumerGroup != "orderflow-pipeline" {
		t.Errorf("consumer group default = %q", cfg.Kafka.ConsumerGroup)
	}
}

func TestLoaderFull(t *testing.T) {
	path := writeConfig(t, `
version: v1
source_service: checkout
engine:
  stage_workers: 4
  queue_depth: 100
  max_retries: 5
kafka:
  brokers: "localhost:9092"
destinations:
  order-events: orders.lifecycle
bindings:
  - stage: financial-enrichment
    input: orders.incoming
    output: orders.enriched
  - stage: audit-transformer
    input: orders.enriched
`)
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := l.Config()
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Destinations["order-events"] != "orders.lifecycle" {
		t.Errorf("destination mapping wrong: %v", cfg.Destinations)
	}
	if len(cfg.Bindings) != 2 || cfg.Bindings[0].Stage != pipeline.StageFinancial {
		t.Errorf("bindings wrong: %+v", cfg.Bindings)
	}
	if cfg.Bindings[1].Output != "" {
		t.Error("audit binding should have no output")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		cfg     *Config
		wantSub string
	}{
		{
			"missing version",
			&Config{},
			"version is required",
		},
		{
			"unknown stage",
			&Config{Version: "v1", Bindings: []BindingConf{{Stage: "mystery", Input: "in"}}},
			`unknown stage "mystery"`,
		},
		{
			"missing input",
			&Config{Version: "v1", Bindings: []BindingConf{{Stage: pipeline.StageAudit}}},
			"input is required",
		},
		{
			"duplicate binding",
			&Config{Version: "v1", Bindings: []BindingConf{
				{Stage: pipeline.StageAudit, Input: "a"},
				{Stage: pipeline.StageAudit, Input: "b"},
			}},
			"duplicate binding",
		},
		{
			"empty topic",
			&Config{Version: "v1", Destinations: map[string]string{"order-events": ""}},
			"topic must not be empty",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Validate(c.cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), c.wantSub) {
				t.Errorf("error %q does not mention %q", err, c.wantSub)
			}
		})
	}
}
