package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Telemetry struct {
		Distance float64       `env:"TEST_TELEMETRY_DISTANCE_M" default:"100"`
		Interval time.Duration `env:"TEST_TELEMETRY_INTERVAL" default:"15s"`
		Enabled  bool          `env:"TEST_TELEMETRY_ENABLED" default:"true"`
	}
	Brokers []string `env:"TEST_BROKERS"`
	Name    string   `env:"TEST_NAME" default:"agent"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAndParseYaml_FlattensNestedKeys(t *testing.T) {
	path := writeFile(t, `
test:
  telemetry:
    distance_m: 250
    interval: 30s
  brokers: [a:9092, b:9092]
`)
	t.Setenv("TEST_TELEMETRY_DISTANCE_M", "")
	t.Setenv("TEST_TELEMETRY_INTERVAL", "")
	t.Setenv("TEST_BROKERS", "")

	var cfg testConfig
	if err := LoadAndParseYaml(path, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Telemetry.Distance != 250 {
		t.Fatalf("distance: got %v", cfg.Telemetry.Distance)
	}
	if cfg.Telemetry.Interval != 30*time.Second {
		t.Fatalf("interval: got %v", cfg.Telemetry.Interval)
	}
	if !cfg.Telemetry.Enabled {
		t.Fatalf("enabled must fall back to default")
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "b:9092" {
		t.Fatalf("brokers: got %v", cfg.Brokers)
	}
	if cfg.Name != "agent" {
		t.Fatalf("name: got %q", cfg.Name)
	}
}

func TestLoadYamlFile_EnvWins(t *testing.T) {
	path := writeFile(t, "test:\n  name: from-file\n")
	t.Setenv("TEST_NAME", "from-env")

	var cfg testConfig
	if err := LoadAndParseYaml(path, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Fatalf("env must not be overridden, got %q", cfg.Name)
	}
}

func TestLoadYamlFile_ExpandsDefault(t *testing.T) {
	path := writeFile(t, "test:\n  name: ${TEST_UNSET_VARIABLE:-fallback}\n")
	t.Setenv("TEST_NAME", "")
	t.Setenv("TEST_UNSET_VARIABLE", "")

	var cfg testConfig
	if err := LoadAndParseYaml(path, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "fallback" {
		t.Fatalf("expected fallback, got %q", cfg.Name)
	}
}

func TestLoadAndParseYaml_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadAndParseYaml(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}
}

func TestParseEnv_RejectsNonPointer(t *testing.T) {
	if err := ParseEnv(testConfig{}); err != ErrNotStructPointer {
		t.Fatalf("expected ErrNotStructPointer, got %v", err)
	}
}
