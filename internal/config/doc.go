// Package config loads spoolwatch settings.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/spoolwatch/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or empty, use defaults
//
// Files ending in .yaml or .yml are decoded as YAML; anything else is TOML.
//
// # Example
//
//	server = "http://127.0.0.1:8000"
//	poll_interval = "3s"
//	allowed_extensions = ["pdf"]
//	log_lines = 500
//	state_dir = "~/.local/state/spoolwatch"
//	metrics_addr = ""
//	username = ""
//
//	[reconnect]
//	base = "1s"
//	max = "30s"
//	attempts = 10   # 0 keeps retrying forever
//
// allowed_extensions is matched case-insensitively against the final
// extension of the chosen file. ["pdf", "docx", "jpg", "jpeg", "png"]
// restores the broader list older servers accepted.
//
// # Derived Paths
//
//   - SessionPath: <state_dir>/session.json, the persisted login cookie
//   - LogPath: <state_dir>/spoolwatch.log, diagnostics while the TUI runs
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files, parse
// errors and invalid durations. A missing file is not an error.
package config
