package config

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/orderflow/internal/pipeline"
)

// knownStages are the stage names bindings may reference.
var knownStages = map[string]bool{
	pipeline.StageFinancial: true,
	pipeline.StageSplitter:  true,
	pipeline.StageAnalytics: true,
	pipeline.StageAudit:     true,
}

// Validate checks the config for:
//   - Required fields
//   - Bindings referencing unknown stages
//   - Duplicate or inputless bindings
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	seen := make(map[string]int) // stage → binding index
	for i, b := range cfg.Bindings {
		if b.Stage == "" {
			errs = append(errs, fmt.Sprintf("bindings[%d]: stage is required", i))
			continue
		}
		if !knownStages[b.Stage] {
			errs = append(errs, fmt.Sprintf("bindings[%d]: unknown stage %q", i, b.Stage))
		}
		if b.Input == "" {
			errs = append(errs, fmt.Sprintf("binding %s: input is required", b.Stage))
		}
		if prev, ok := seen[b.Stage]; ok {
			errs = append(errs, fmt.Sprintf("duplicate binding for stage %q (bindings[%d] and bindings[%d])", b.Stage, prev, i))
		} else {
			seen[b.Stage] = i
		}
	}

	for logical, topic := range cfg.Destinations {
		if topic == "" {
			errs = append(errs, fmt.Sprintf("destination %q: topic must not be empty", logical))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
