package config

import (
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure.
// This structure maps directly to the config.json file and holds
// business-level settings like channel credentials and the subscription gate.
type Config struct {
	// Channels contains a map of channel identifiers (e.g., "telegram", "web")
	// to their specific configuration payloads in raw JSON format.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// RequiredChannel is the public channel a user must have joined before
	// the bot answers anything, e.g. "@mychannel". Empty disables the gate.
	RequiredChannel string `json:"required_channel"`
	// DatabasePath is the filesystem location of the SQLite user store.
	DatabasePath string `json:"database_path"`
}

// Validate ensures the configuration structure contains all mandatory fields.
// It acts as a primary guard before the system proceeds to initialization.
func (c *Config) Validate() error {
	if len(c.Channels) == 0 {
		return fmt.Errorf("mandatory 'channels' configuration is missing or empty")
	}
	if c.RequiredChannel != "" && !strings.HasPrefix(c.RequiredChannel, "@") {
		return fmt.Errorf("'required_channel' must start with @, got %q", c.RequiredChannel)
	}
	return nil
}

// SystemConfig defines engine-level technical parameters.
// These settings are usually stored in system.json and control the
// performance, reliability, and technical behavior of the bot.
type SystemConfig struct {
	// DispatchTimeoutMs is the hard cutoff time (in milliseconds) for a single
	// provider call (search query or model completion).
	DispatchTimeoutMs int `json:"dispatch_timeout_ms"`
	// MembershipTimeoutMs is the cutoff (in milliseconds) for the subscription
	// membership check. A timed-out check counts as a denial.
	MembershipTimeoutMs int `json:"membership_timeout_ms"`
	// SearchMaxResults is how many top web search results are rendered for
	// a free-text query routed to the search provider.
	SearchMaxResults int `json:"search_max_results"`
	// WikiSummaryLimit is the maximum number of characters of a Wikipedia
	// summary included in a reply before truncation.
	WikiSummaryLimit int `json:"wiki_summary_limit"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message. Longer responses will be split into multiple chunks.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with hardcoded
// safe default values. This is used as a fallback when the system.json file
// is missing or corrupt, ensuring the bot can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DispatchTimeoutMs:    60000,
		MembershipTimeoutMs:  10000,
		SearchMaxResults:     3,
		WikiSummaryLimit:     500,
		TelegramMessageLimit: 4000,
		LogLevel:             "info",
	}
}

// Load reads and parses the JSON configuration files from the current working directory.
// It first attempts to load 'config.json' (app config). If this file is missing, it returns an error.
// Then it calls LoadSystemConfig to load 'system.json'.
// Returns pointers to the loaded Config and SystemConfig, or an error if the mandatory app config fails.
func Load() (*Config, *SystemConfig, error) {
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "users.db"
	}

	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	return cfg
}
