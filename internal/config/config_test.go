package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPreservesUnknownFields(t *testing.T) {
	root := t.TempDir()
	dir := StorageDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := `{"version":1,"projectName":"demo","maxFileSize":2048,"somethingNew":{"a":1}}`
	if err := os.WriteFile(Path(root), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProjectName != "demo" || cfg.MaxFileSize != 2048 {
		t.Fatalf("unexpected typed fields: %+v", cfg)
	}

	if err := cfg.Save(root); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(Path(root))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["somethingNew"]; !ok {
		t.Fatalf("expected unknown field somethingNew to round-trip, got %s", raw)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(StorageDir(root), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path(root), []byte(`{"version":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxFileSize != DefaultMaxFileSize {
		t.Fatalf("expected default maxFileSize, got %d", cfg.MaxFileSize)
	}
}

func TestValidateWarnsOnNonPositiveMaxFileSize(t *testing.T) {
	cfg := &Config{MaxFileSize: -1}
	warnings := Validate(cfg)
	if len(warnings) == 0 {
		t.Fatal("expected a warning for non-positive maxFileSize")
	}
}

func TestPathLayout(t *testing.T) {
	root := "/some/project"
	if Path(root) != filepath.Join(root, ".codexray", "config.json") {
		t.Fatalf("unexpected config path: %s", Path(root))
	}
	if DBPath(root) != filepath.Join(root, ".codexray", "codexray.db") {
		t.Fatalf("unexpected db path: %s", DBPath(root))
	}
}
