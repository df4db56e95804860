package main

import (
	"testing"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/config"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/mapper"
	"github.com/eltahawyomar001-eng/salla-analytics/pkg/validate"
)

func TestMatcherConfigFromEnvironment(t *testing.T) {
	t.Setenv("CONFIDENCE_THRESHOLD", "0.9")
	t.Setenv("SUGGESTION_FLOOR", "0.5")
	t.Setenv("SUGGESTION_LIMIT", "1")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	mc := matcherConfig(cfg)
	if mc.ConfidenceThreshold != 0.9 {
		t.Errorf("ConfidenceThreshold = %v, want 0.9", mc.ConfidenceThreshold)
	}
	if mc.SuggestionFloor != 0.5 {
		t.Errorf("SuggestionFloor = %v, want 0.5", mc.SuggestionFloor)
	}
	if mc.SuggestionLimit != 1 {
		t.Errorf("SuggestionLimit = %d, want 1", mc.SuggestionLimit)
	}

	// Thresholds without an environment knob keep the matcher defaults.
	def := mapper.DefaultConfig()
	if mc.SubstringBonus != def.SubstringBonus || mc.MinSubstringLength != def.MinSubstringLength {
		t.Errorf("substring tunables = (%v, %d), want defaults (%v, %d)",
			mc.SubstringBonus, mc.MinSubstringLength, def.SubstringBonus, def.MinSubstringLength)
	}
}

func TestValidatorConfigFromEnvironment(t *testing.T) {
	t.Setenv("ERROR_CEILING", "3")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	vc := validatorConfig(cfg)
	if vc.ErrorCeiling != 3 {
		t.Errorf("ErrorCeiling = %d, want 3", vc.ErrorCeiling)
	}
	if def := validate.DefaultConfig(); vc.NullErrorPct != def.NullErrorPct {
		t.Errorf("NullErrorPct = %v, want default %v", vc.NullErrorPct, def.NullErrorPct)
	}
}
