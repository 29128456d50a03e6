package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config captures the settings spoolwatch reads at startup.
type Config struct {
	ServerURL         string
	PollInterval      time.Duration
	ReconnectBase     time.Duration
	ReconnectMax      time.Duration
	ReconnectAttempts int
	AllowedExtensions []string
	LogLines          int
	StateDir          string
	MetricsAddr       string
	Username          string
}

const (
	defaultConfigPath    = "~/.config/spoolwatch/config.toml"
	defaultStateDir      = "~/.local/state/spoolwatch"
	defaultServerURL     = "http://127.0.0.1:8000"
	defaultPollInterval  = 3 * time.Second
	defaultReconnectBase = time.Second
	defaultReconnectMax  = 30 * time.Second
	defaultAttempts      = 10
	defaultLogLines      = 500
)

var defaultExtensions = []string{".pdf"}

type fileConfig struct {
	Server            string    `toml:"server" yaml:"server"`
	PollInterval      string    `toml:"poll_interval" yaml:"poll_interval"`
	Reconnect         reconnect `toml:"reconnect" yaml:"reconnect"`
	AllowedExtensions []string  `toml:"allowed_extensions" yaml:"allowed_extensions"`
	LogLines          int       `toml:"log_lines" yaml:"log_lines"`
	StateDir          string    `toml:"state_dir" yaml:"state_dir"`
	MetricsAddr       string    `toml:"metrics_addr" yaml:"metrics_addr"`
	Username          string    `toml:"username" yaml:"username"`
}

type reconnect struct {
	Base     string `toml:"base" yaml:"base"`
	Max      string `toml:"max" yaml:"max"`
	Attempts *int   `toml:"attempts" yaml:"attempts"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerURL:         defaultServerURL,
		PollInterval:      defaultPollInterval,
		ReconnectBase:     defaultReconnectBase,
		ReconnectMax:      defaultReconnectMax,
		ReconnectAttempts: defaultAttempts,
		AllowedExtensions: append([]string(nil), defaultExtensions...),
		LogLines:          defaultLogLines,
		StateDir:          mustExpand(defaultStateDir),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
// Paths ending in .yaml or .yml are decoded as YAML, everything else as TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.apply(raw); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(raw fileConfig) error {
	if v := strings.TrimSpace(raw.Server); v != "" {
		c.ServerURL = v
	}
	if err := parseDuration("poll_interval", raw.PollInterval, &c.PollInterval); err != nil {
		return err
	}
	if err := parseDuration("reconnect.base", raw.Reconnect.Base, &c.ReconnectBase); err != nil {
		return err
	}
	if err := parseDuration("reconnect.max", raw.Reconnect.Max, &c.ReconnectMax); err != nil {
		return err
	}
	if raw.Reconnect.Attempts != nil {
		if *raw.Reconnect.Attempts < 0 {
			return fmt.Errorf("parse config: reconnect.attempts must be >= 0")
		}
		c.ReconnectAttempts = *raw.Reconnect.Attempts
	}
	if exts := NormalizeExtensions(raw.AllowedExtensions); len(exts) > 0 {
		c.AllowedExtensions = exts
	}
	if raw.LogLines > 0 {
		c.LogLines = raw.LogLines
	}
	if v := strings.TrimSpace(raw.StateDir); v != "" {
		c.StateDir = mustExpand(v)
	}
	c.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	c.Username = strings.TrimSpace(raw.Username)
	return nil
}

func parseDuration(field, value string, dest *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse config: %s must be positive", field)
	}
	*dest = d
	return nil
}

// NormalizeExtensions lowercases entries, adds the leading dot and drops
// blanks and duplicates.
func NormalizeExtensions(exts []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

// SessionPath returns where the login session cookie is persisted.
func (c Config) SessionPath() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir + "/session.json")
	}
	return filepath.Join(c.StateDir, "session.json")
}

// LogPath returns the file the dashboard writes its diagnostic log to.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir + "/spoolwatch.log")
	}
	return filepath.Join(c.StateDir, "spoolwatch.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
