package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ConfigDir returns the sweep-vault config directory path.
// Uses $XDG_CONFIG_HOME/sweep-vault if set, otherwise ~/.config/sweep-vault.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sweep-vault")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sweep-vault")
}

var dataDirLine = regexp.MustCompile(`(?m)^data_dir\s*=.*$`)

// WriteDefault writes a default config.toml pointing to dataDir and
// reports what it did: "created", "updated" (data_dir rewritten, every
// other setting kept) or "unchanged".
func WriteDefault(dataDir string) (path, action string, err error) {
	dir := ConfigDir()
	path = filepath.Join(dir, "config.toml")
	line := fmt.Sprintf("data_dir = %q", CompressHome(dataDir))

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		content := string(existing)
		var updated string
		if loc := dataDirLine.FindStringIndex(content); loc != nil {
			if content[loc[0]:loc[1]] == line {
				return path, "unchanged", nil
			}
			updated = content[:loc[0]] + line + content[loc[1]:]
		} else {
			updated = line + "\n\n" + content
		}
		if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
			return "", "", fmt.Errorf("write config: %w", err)
		}
		return path, "updated", nil
	case !os.IsNotExist(err):
		return "", "", fmt.Errorf("read config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create config dir: %w", err)
	}

	content := line + "\n" + defaultBody
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("write config: %w", err)
	}

	return path, "created", nil
}

const defaultBody = `
[instrument]
dt = 5e-05
version = "V1"

[storage]
backend = "fs"

[storage.s3]
bucket = ""
prefix = ""
region = "us-east-1"
endpoint = ""
access_key_env = "AWS_ACCESS_KEY_ID"
secret_key_env = "AWS_SECRET_ACCESS_KEY"
path_style = false

[render]
enabled = true
width = 1024
height = 512

[peaks]
metric = "amplitude"

[archive]
codec = "zstd"
dir = "~/sweep-vault-backups"

[watch]
debounce_ms = 500

[log]
level = "info"
format = "console"
`

// CompressHome replaces $HOME prefix with ~/ for portable config values.
func CompressHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home+"/") {
		return "~/" + path[len(home)+1:]
	}
	if path == home {
		return "~"
	}
	return path
}
