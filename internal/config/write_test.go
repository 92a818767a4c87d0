package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteDefault_CreatesConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, action, err := WriteDefault("/lab/data")
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	if action != "created" {
		t.Errorf("action = %q, want %q", action, "created")
	}

	want := filepath.Join(dir, "sweep-vault", "config.toml")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.DataDir != "/lab/data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}

	data, _ := os.ReadFile(path)
	for _, s := range []string{"[instrument]", "[storage]", "[storage.s3]", "[render]", "[peaks]", "[archive]", "[watch]", "[log]"} {
		if !strings.Contains(string(data), s) {
			t.Errorf("config missing %s section", s)
		}
	}
}

func TestWriteDefault_UpdatesExistingDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "sweep-vault")
	os.MkdirAll(configDir, 0o755)

	existing := filepath.Join(configDir, "config.toml")
	os.WriteFile(existing, []byte("data_dir = \"~/old\"\n\n[instrument]\ndt = 0.001\n"), 0o644)

	path, action, err := WriteDefault("/some/other/path")
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	if action != "updated" {
		t.Errorf("action = %q, want %q", action, "updated")
	}
	if path != existing {
		t.Errorf("path = %q, want %q", path, existing)
	}

	data, _ := os.ReadFile(existing)
	content := string(data)

	if !strings.Contains(content, "/some/other/path") {
		t.Error("data_dir not updated to new path")
	}
	if strings.Contains(content, "~/old") {
		t.Error("old data_dir still present")
	}
	if !strings.Contains(content, "dt = 0.001") {
		t.Error("custom instrument value was lost")
	}
}

func TestWriteDefault_UnchangedExisting(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "sweep-vault")
	os.MkdirAll(configDir, 0o755)

	existing := filepath.Join(configDir, "config.toml")
	original := "data_dir = \"/some/path\"\n\n[log]\nlevel = \"debug\"\n"
	os.WriteFile(existing, []byte(original), 0o644)

	_, action, err := WriteDefault("/some/path")
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	if action != "unchanged" {
		t.Errorf("action = %q, want %q", action, "unchanged")
	}

	data, _ := os.ReadFile(existing)
	if string(data) != original {
		t.Error("file was modified when it should have been unchanged")
	}
}

func TestWriteDefault_MissingDataDirKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "sweep-vault")
	os.MkdirAll(configDir, 0o755)

	existing := filepath.Join(configDir, "config.toml")
	os.WriteFile(existing, []byte("[peaks]\nmetric = \"baseline\"\n"), 0o644)

	_, action, err := WriteDefault("/my/data")
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	if action != "updated" {
		t.Errorf("action = %q, want %q", action, "updated")
	}

	cfg, err := LoadFile(existing)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DataDir != "/my/data" {
		t.Errorf("DataDir = %q, want /my/data", cfg.DataDir)
	}
	if cfg.Peaks.Metric != "baseline" {
		t.Errorf("Peaks.Metric = %q, want baseline", cfg.Peaks.Metric)
	}
}

func TestCompressHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in, want string
	}{
		{filepath.Join(home, "lab"), "~/lab"},
		{home, "~"},
		{"/elsewhere/lab", "/elsewhere/lab"},
	}
	for _, tt := range tests {
		if got := CompressHome(tt.in); got != tt.want {
			t.Errorf("CompressHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
