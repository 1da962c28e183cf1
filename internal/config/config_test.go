package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	want := Default()
	want.DBPath = "/tmp/tasks.db"
	want.WebEnabled = true
	want.WebPort = 9090
	want.RemoteTimeout = "3s"
	want.Workers = 2
	want.LogLevel = "debug"

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got.Timeout() != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", got.Timeout())
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"web_port": 7000}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebPort != 7000 || cfg.Workers != defaultWorker || cfg.RemoteURL != defaultURL {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"db_path": "/from/file.db", "web_port": 7000}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("LAZYTODO_DB_PATH", "/from/env.db")
	t.Setenv("LAZYTODO_WEB_ENABLED", "true")
	t.Setenv("LAZYTODO_LOG_LEVEL", "WARN")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/from/env.db" || !cfg.WebEnabled || cfg.WebPort != 7000 || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"web_port":`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTimeoutFallback(t *testing.T) {
	cfg := Config{RemoteTimeout: "soon"}
	if cfg.Timeout() != 15*time.Second {
		t.Fatalf("expected fallback timeout, got %v", cfg.Timeout())
	}
}
