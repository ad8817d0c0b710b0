package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	assertEqual(t, "Storage.DatabasePath", "benchmark_results/results.db", cfg.Storage.DatabasePath)
	assertEqual(t, "Judge.Model", "gpt-4o", cfg.Judge.Model)
	assertFloatPtr(t, "Judge.Temperature", 0.3, cfg.Judge.Temperature)
	assertEqualInt(t, "Server.Port", 8000, cfg.Server.Port)
	if cfg.Server.AllowedOrigins != nil {
		t.Error("Server.AllowedOrigins should be nil by default")
	}
	assertFloatPtr(t, "Weights.Quality", 0.60, cfg.Weights.Quality)
	assertFloatPtr(t, "Weights.Speed", 0.30, cfg.Weights.Speed)
	assertFloatPtr(t, "Weights.Cost", 0.10, cfg.Weights.Cost)
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".promptbench.yaml", `
storage:
  database_path: "custom/results.db"
judge:
  model: gpt-4-turbo
  temperature: 0.0
server:
  port: 9090
  allowed_origins:
    - "http://localhost:5173"
weights:
  quality: 0.5
  speed: 0.4
  cost: 0.1
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "Storage.DatabasePath", "custom/results.db", cfg.Storage.DatabasePath)
	assertEqual(t, "Judge.Model", "gpt-4-turbo", cfg.Judge.Model)
	assertFloatPtr(t, "Judge.Temperature", 0.0, cfg.Judge.Temperature)
	assertEqualInt(t, "Server.Port", 9090, cfg.Server.Port)
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	assertFloatPtr(t, "Weights.Quality", 0.5, cfg.Weights.Quality)
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".promptbench.yaml", `
server:
  port: 9999
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqualInt(t, "Server.Port", 9999, cfg.Server.Port)
	// Everything else stays at defaults.
	assertEqual(t, "Storage.DatabasePath", DefaultDatabasePath, cfg.Storage.DatabasePath)
	assertEqual(t, "Judge.Model", DefaultJudgeModel, cfg.Judge.Model)
	assertFloatPtr(t, "Weights.Quality", DefaultQualityWeight, cfg.Weights.Quality)
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqualInt(t, "Server.Port", DefaultServerPort, cfg.Server.Port)
}

func TestLoad_WalksUpToParent(t *testing.T) {
	parent := t.TempDir()
	writeFile(t, parent, ".promptbench.yaml", `
server:
  port: 7070
`)
	child := filepath.Join(parent, "a", "b")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(child)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqualInt(t, "Server.Port", 7070, cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".promptbench.yaml", "server: [not: a: map")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error for invalid YAML")
	}
}

func TestLoad_ExplicitZeroTemperatureKept(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".promptbench.yaml", `
judge:
  temperature: 0.0
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// Pointer fields distinguish "unset" from an explicit zero.
	assertFloatPtr(t, "Judge.Temperature", 0.0, cfg.Judge.Temperature)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", field, got, want)
	}
}

func assertFloatPtr(t *testing.T, field string, want float64, got *float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is nil, want %f", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %f, want %f", field, *got, want)
	}
}
