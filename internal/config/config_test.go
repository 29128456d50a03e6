package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != defaultServerURL {
		t.Fatalf("ServerURL = %q, want %q", cfg.ServerURL, defaultServerURL)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("PollInterval = %v, want 3s", cfg.PollInterval)
	}
	if !reflect.DeepEqual(cfg.AllowedExtensions, []string{".pdf"}) {
		t.Fatalf("AllowedExtensions = %v, want [.pdf]", cfg.AllowedExtensions)
	}

	wantStateDir, err := expandPath(defaultStateDir)
	if err != nil {
		t.Fatalf("expandPath(defaultStateDir) returned error: %v", err)
	}
	if cfg.StateDir != wantStateDir {
		t.Fatalf("StateDir = %q, want %q", cfg.StateDir, wantStateDir)
	}
	if cfg.SessionPath() != filepath.Join(wantStateDir, "session.json") {
		t.Fatalf("SessionPath = %q", cfg.SessionPath())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
server = "  https://print.example.com  "
poll_interval = "5s"
allowed_extensions = ["PDF", "docx", ".jpg", "jpeg", "png", "pdf"]
log_lines = 50
state_dir = "  ~/.spoolwatch  "
metrics_addr = "127.0.0.1:9109"
username = " ann "

[reconnect]
base = "500ms"
max = "10s"
attempts = 0
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "https://print.example.com" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.ReconnectBase != 500*time.Millisecond || cfg.ReconnectMax != 10*time.Second {
		t.Fatalf("reconnect = %v/%v", cfg.ReconnectBase, cfg.ReconnectMax)
	}
	if cfg.ReconnectAttempts != 0 {
		t.Fatalf("ReconnectAttempts = %d, want 0 (explicit unlimited)", cfg.ReconnectAttempts)
	}
	want := []string{".pdf", ".docx", ".jpg", ".jpeg", ".png"}
	if !reflect.DeepEqual(cfg.AllowedExtensions, want) {
		t.Fatalf("AllowedExtensions = %v, want %v", cfg.AllowedExtensions, want)
	}
	if cfg.LogLines != 50 {
		t.Fatalf("LogLines = %d, want 50", cfg.LogLines)
	}
	if !strings.HasPrefix(cfg.StateDir, home) {
		t.Fatalf("StateDir = %q, want it under HOME %q", cfg.StateDir, home)
	}
	if cfg.MetricsAddr != "127.0.0.1:9109" || cfg.Username != "ann" {
		t.Fatalf("MetricsAddr/Username = %q/%q", cfg.MetricsAddr, cfg.Username)
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`
server: 10.0.0.5:9999
poll_interval: 2s
reconnect:
  attempts: 4
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "10.0.0.5:9999" || cfg.PollInterval != 2*time.Second || cfg.ReconnectAttempts != 4 {
		t.Fatalf("cfg = %#v", cfg)
	}
	if cfg.ReconnectBase != defaultReconnectBase {
		t.Fatalf("ReconnectBase = %v, want default", cfg.ReconnectBase)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
server = "   "
state_dir = ""
allowed_extensions = ["", " "]
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestLoad_InvalidFilesFail(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad toml", "config.toml", `server = [`},
		{"bad yaml", "config.yml", "server: [unterminated"},
		{"bad duration", "config.toml", `poll_interval = "soon"`},
		{"negative duration", "config.toml", `poll_interval = "-1s"`},
		{"negative attempts", "config.toml", "[reconnect]\nattempts = -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatalf("Load returned nil error, want parse error")
			}
			if !strings.Contains(err.Error(), "parse config") {
				t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenStateDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/spoolwatch.log")) {
		t.Fatalf("LogPath = %q, want it to end with /spoolwatch.log", got)
	}
}
