package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/draftops/refinery/pkg/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if cfg.Orchestrator.EstimatedVelocity != 5 {
		t.Errorf("EstimatedVelocity = %v, want 5", cfg.Orchestrator.EstimatedVelocity)
	}
	if cfg.Orchestrator.MaxTasksPerSession != 10 {
		t.Errorf("MaxTasksPerSession = %v, want 10", cfg.Orchestrator.MaxTasksPerSession)
	}
	if cfg.Orchestrator.StallThreshold != 3 {
		t.Errorf("StallThreshold = %v, want 3", cfg.Orchestrator.StallThreshold)
	}
	if cfg.Health.MaxHistory != 100 {
		t.Errorf("MaxHistory = %v, want 100", cfg.Health.MaxHistory)
	}
	if cfg.Health.TrendWindowDays != 30 {
		t.Errorf("TrendWindowDays = %v, want 30", cfg.Health.TrendWindowDays)
	}
	if cfg.Verifier.MaxEvidenceRecords != 1000 {
		t.Errorf("MaxEvidenceRecords = %v, want 1000", cfg.Verifier.MaxEvidenceRecords)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load("does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadOrDefault_FallsBack(t *testing.T) {
	cfg := config.LoadOrDefault("does/not/exist.yaml")
	if cfg.Orchestrator.EstimatedVelocity != 5 {
		t.Errorf("fallback velocity = %v, want 5", cfg.Orchestrator.EstimatedVelocity)
	}
}

func TestLoad_AppliesDefaultsToMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	content := "orchestrator:\n  estimated_velocity: 8\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Orchestrator.EstimatedVelocity != 8 {
		t.Errorf("EstimatedVelocity = %v, want 8", cfg.Orchestrator.EstimatedVelocity)
	}
	if cfg.Orchestrator.MaxTasksPerSession != 10 {
		t.Errorf("MaxTasksPerSession default = %v, want 10", cfg.Orchestrator.MaxTasksPerSession)
	}
	if cfg.Orchestrator.FrictionWindow != "60s" {
		t.Errorf("FrictionWindow default = %v, want 60s", cfg.Orchestrator.FrictionWindow)
	}
}

func TestLoad_RejectsInvalidFrictionWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := "orchestrator:\n  friction_window: banana\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := config.Load(path); err == nil {
		t.Error("expected validation error for unparseable friction window")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := config.Default()
	original.Orchestrator.StallThreshold = 7
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Orchestrator.StallThreshold != 7 {
		t.Errorf("StallThreshold = %v, want 7", loaded.Orchestrator.StallThreshold)
	}
}

func TestOverrideFromEnv_Velocity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Default().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("REFINERY_VELOCITY", "2.5")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Orchestrator.EstimatedVelocity != 2.5 {
		t.Errorf("EstimatedVelocity = %v, want 2.5", cfg.Orchestrator.EstimatedVelocity)
	}
}

func TestFrictionWindowDuration(t *testing.T) {
	cfg := config.Default()
	if cfg.FrictionWindowDuration() != 60*time.Second {
		t.Errorf("FrictionWindowDuration = %v, want 60s", cfg.FrictionWindowDuration())
	}

	cfg.Orchestrator.FrictionWindow = "90s"
	if cfg.FrictionWindowDuration() != 90*time.Second {
		t.Errorf("FrictionWindowDuration = %v, want 90s", cfg.FrictionWindowDuration())
	}
}
