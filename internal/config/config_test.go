package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.StepDelay != 3*time.Second {
		t.Errorf("StepDelay = %v, want 3s", cfg.StepDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := "addr: \":9090\"\nstep_delay: 250ms\nmax_concurrent_runs: 4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path, DefaultServerConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Addr)
	}
	if cfg.StepDelay != 250*time.Millisecond {
		t.Errorf("step_delay = %v, want 250ms", cfg.StepDelay)
	}
	if cfg.MaxConcurrentRuns != 4 {
		t.Errorf("max_concurrent_runs = %d, want 4", cfg.MaxConcurrentRuns)
	}
	// Untouched fields keep defaults.
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), DefaultServerConfig()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MODELRUN_STEP_DELAY", "10ms")
	t.Setenv("DATABASE_URL", "postgres://localhost/modelrun")

	cfg, err := ApplyEnv(DefaultServerConfig())
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.StepDelay != 10*time.Millisecond {
		t.Errorf("StepDelay = %v, want 10ms", cfg.StepDelay)
	}
	if cfg.DatabaseURL != "postgres://localhost/modelrun" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestApplyEnvBadDelay(t *testing.T) {
	t.Setenv("MODELRUN_STEP_DELAY", "not-a-duration")
	if _, err := ApplyEnv(DefaultServerConfig()); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.StepDelay = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative step_delay should be rejected")
	}

	cfg = DefaultServerConfig()
	cfg.YieldDataPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty dataset path should be rejected")
	}
}
