// Package config loads the single optional JSON configuration document a
// host process is wired from, and watches it for hot-swappable changes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnvVar names the environment variable that overrides the default config
// path when no explicit path is given.
const EnvVar = "AGENTCORE_CONFIG"

// DefaultFileName is the file looked for under Workspace when neither an
// explicit path nor EnvVar is set.
const DefaultFileName = "config.json"

// AgentConfig declares one agent entry under the "agents" map.
type AgentConfig struct {
	Name          string `json:"name"`
	Model         string `json:"model"`
	SoulPath      string `json:"soul_path,omitempty"`
	Prefix        string `json:"prefix,omitempty"`
	SessionPrefix string `json:"session_prefix,omitempty"`
}

// ChannelConfig declares one entry under the "channels" map.
type ChannelConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// HeartbeatConfig declares one entry in the "heartbeats" list.
type HeartbeatConfig struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Prompt   string `json:"prompt"`
	Agent    string `json:"agent"`
}

// PermissionsConfig is the "permissions" block.
type PermissionsConfig struct {
	SafeCommands []string `json:"safe_commands,omitempty"`
}

// LLMConfig is the "llm" block. Provider and BaseURL require a process
// restart to take effect even under a live config watch; ApiKeyEnv is the
// name of an environment variable holding the key, never the key itself.
type LLMConfig struct {
	Provider  string `json:"provider"`
	ApiKeyEnv string `json:"api_key_env,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
}

// LoggingConfig is the "logging" block.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// MetricsConfig is the "metrics" block.
type MetricsConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listen_addr,omitempty"`
}

// Config is the decoded shape of the configuration document.
type Config struct {
	Workspace    string                   `json:"workspace"`
	DefaultModel string                   `json:"default_model"`
	Agents       map[string]AgentConfig   `json:"agents,omitempty"`
	Channels     map[string]ChannelConfig `json:"channels,omitempty"`
	Heartbeats   []HeartbeatConfig        `json:"heartbeats,omitempty"`
	Permissions  PermissionsConfig        `json:"permissions,omitempty"`
	LLM          LLMConfig                `json:"llm,omitempty"`
	Logging      LoggingConfig            `json:"logging,omitempty"`
	Metrics      MetricsConfig            `json:"metrics,omitempty"`
}

// Default returns the built-in configuration used when no file is found.
func Default() Config {
	return Config{
		Workspace:    ".",
		DefaultModel: "claude-sonnet-4-5",
		LLM:          LLMConfig{Provider: "anthropic", ApiKeyEnv: "ANTHROPIC_API_KEY"},
		Logging:      LoggingConfig{Level: "info", Format: "text"},
		Metrics:      MetricsConfig{Enabled: false},
	}
}

// Resolve finds the configuration path to load, in precedence order:
// explicitPath (if non-empty), $AGENTCORE_CONFIG (if set), then
// <workspace>/config.json (if it exists). The explicit and environment
// paths are returned without checking that they exist. Returns "" when
// neither is given and the workspace file does not exist, signalling the
// caller should use Default().
func Resolve(explicitPath, workspace string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if fromEnv := os.Getenv(EnvVar); fromEnv != "" {
		return fromEnv
	}
	candidate := filepath.Join(workspace, DefaultFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Load reads and decodes the document at path, applying os.ExpandEnv to the
// raw bytes first so the file may reference secrets by environment variable
// name. An empty path returns Default(), not an error.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(raw))
	cfg := Default()
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports configuration problems a host should refuse to start
// with, and returns the rest as non-fatal warnings.
func Validate(cfg Config) (warnings []string, err error) {
	if cfg.Workspace == "" {
		return nil, fmt.Errorf("config: workspace must not be empty")
	}
	if cfg.DefaultModel == "" && len(cfg.Agents) == 0 {
		warnings = append(warnings, "no default_model and no agents configured; every turn will need an explicit model")
	}
	for id, hb := range indexHeartbeats(cfg.Heartbeats) {
		if hb.Agent == "" {
			warnings = append(warnings, fmt.Sprintf("heartbeat %q (index %d) has no agent set", hb.Name, id))
		}
	}
	if cfg.LLM.Provider == "" {
		warnings = append(warnings, "llm.provider is empty; defaulting to \"anthropic\" at wiring time")
	}
	return warnings, nil
}

func indexHeartbeats(hbs []HeartbeatConfig) map[int]HeartbeatConfig {
	out := make(map[int]HeartbeatConfig, len(hbs))
	for i, hb := range hbs {
		out[i] = hb
	}
	return out
}
