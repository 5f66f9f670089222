package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Client holds all configuration for the grotto client and dumper.
type Client struct {
	// Network
	ServerAddress string `yaml:"server_address"`

	// Identity
	PlayerName string `yaml:"player_name"`
	Password   string `yaml:"password"`
	ClientUUID string `yaml:"client_uuid"`

	// Protocol
	ProfilePath    string `yaml:"profile"` // empty = built-in default profile
	InventorySlots int    `yaml:"inventory_slots"`
	WorldInfoRetry int    `yaml:"world_info_retry"` // seconds, 0 disables

	// Observability
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"` // empty = no metrics listener

	// Capture persistence (optional)
	CaptureDSN string `yaml:"capture_dsn"`

	Bot  Bot  `yaml:"bot"`
	Dump Dump `yaml:"dump"`
}

// Bot configures the exploration loop.
type Bot struct {
	Enabled       bool `yaml:"enabled"`
	PreferRight   bool `yaml:"prefer_right"`
	JumpIfBlocked bool `yaml:"jump_if_blocked"`
	TickMillis    int  `yaml:"tick_millis"`
}

// Dump configures the relaying proxy.
type Dump struct {
	ListenAddress   string `yaml:"listen_address"`
	UpstreamAddress string `yaml:"upstream_address"`
	SuppressTypes   []int  `yaml:"suppress_types"`
	DumpPayloads    bool   `yaml:"dump_payloads"`
}

// DefaultClient returns a Client config with sensible defaults.
func DefaultClient() Client {
	return Client{
		ServerAddress:  "127.0.0.1:7777",
		PlayerName:     "grotto",
		InventorySlots: 73,
		WorldInfoRetry: 2,
		LogLevel:       "info",
		Bot: Bot{
			PreferRight:   true,
			JumpIfBlocked: true,
			TickMillis:    50,
		},
		Dump: Dump{
			ListenAddress:   "127.0.0.1:7777",
			UpstreamAddress: "127.0.0.1:7778",
		},
	}
}

// LoadClient reads config from a YAML file, applying defaults for missing
// fields.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
