package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "server: https://records.example.com\nprefix: /api\noutput: json\ntimeout: 5s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RECORDSVC_CLI_OUTPUT", "yaml")
	t.Setenv("RECORDSVC_CLI_API_KEY_ID", "rmak-abc")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server != "https://records.example.com" || cfg.Prefix != "/api" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Output != "yaml" {
		t.Errorf("Output = %q, want yaml from env", cfg.Output)
	}
	if cfg.APIKeyID != "rmak-abc" {
		t.Errorf("APIKeyID = %q", cfg.APIKeyID)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")
	want := &CLIConfig{
		Server:   "localhost:6000",
		Prefix:   "/api",
		APIKeyID: "rmak-abc",
		APIKey:   "rmas_secret",
		Output:   "json",
		Timeout:  10 * time.Second,
	}

	if err := Save(want, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timeout: 10s") {
		t.Errorf("saved file:\n%s", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != *want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestMasked(t *testing.T) {
	cfg := &CLIConfig{APIKey: "rmas_secret", Server: "x"}
	m := cfg.Masked()
	if m.APIKey == "rmas_secret" || m.Server != "x" {
		t.Errorf("Masked() = %+v", m)
	}
	if cfg.APIKey != "rmas_secret" {
		t.Error("Masked() modified the original")
	}
	if (&CLIConfig{}).Masked().APIKey != "" {
		t.Error("empty key should stay empty")
	}
}
