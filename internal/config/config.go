// Package config loads bot configuration from an HCL file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "BLACKJACK_"

// Storage drivers
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config represents the complete bot configuration
type Config struct {
	Bot     BotConfig     `envPrefix:"BOT_"`
	Game    GameConfig    `envPrefix:"GAME_"`
	Storage StorageConfig `envPrefix:"STORAGE_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Log     LogConfig     `envPrefix:"LOG_"`
}

// BotConfig controls how the bot appears in chat
type BotConfig struct {
	Nick   string `hcl:"nick,optional" env:"NICK"`
	Prefix string `hcl:"prefix,optional" env:"PREFIX"`
}

// GameConfig contains table rules
type GameConfig struct {
	StartingBalance int64  `hcl:"starting_balance,optional" env:"STARTING_BALANCE"`
	Decks           int    `hcl:"decks,optional" env:"DECKS"`
	ActionTimeout   string `hcl:"action_timeout,optional" env:"ACTION_TIMEOUT"`
	Seed            *int64 `hcl:"seed,optional" env:"SEED"`
}

// StorageConfig selects where balances live
type StorageConfig struct {
	Driver string `hcl:"driver,optional" env:"DRIVER"`
	Path   string `hcl:"path,optional" env:"PATH"`
}

// ServerConfig contains the chat room listener settings
type ServerConfig struct {
	Address string `hcl:"address,optional" env:"ADDRESS"`
	Port    int    `hcl:"port,optional" env:"PORT"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `hcl:"level,optional" env:"LEVEL"`
	Format string `hcl:"format,optional" env:"FORMAT"`
	File   string `hcl:"file,optional" env:"FILE"`
}

// file mirrors Config with optional blocks
type file struct {
	Bot     *BotConfig     `hcl:"bot,block"`
	Game    *GameConfig    `hcl:"game,block"`
	Storage *StorageConfig `hcl:"storage,block"`
	Server  *ServerConfig  `hcl:"server,block"`
	Log     *LogConfig     `hcl:"log,block"`
}

// Default returns the default configuration
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename, applies BLACKJACK_* environment overrides and fills
// in defaults. A missing or empty filename yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := &Config{}

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			if err := cfg.decodeFile(filename); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) decodeFile(filename string) error {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw file
	diags = gohcl.DecodeBody(f.Body, nil, &raw)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if raw.Bot != nil {
		c.Bot = *raw.Bot
	}
	if raw.Game != nil {
		c.Game = *raw.Game
	}
	if raw.Storage != nil {
		c.Storage = *raw.Storage
	}
	if raw.Server != nil {
		c.Server = *raw.Server
	}
	if raw.Log != nil {
		c.Log = *raw.Log
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Bot.Nick == "" {
		c.Bot.Nick = "dealer"
	}
	if c.Bot.Prefix == "" {
		c.Bot.Prefix = "!"
	}

	if c.Game.StartingBalance == 0 {
		c.Game.StartingBalance = 10000
	}
	if c.Game.Decks == 0 {
		c.Game.Decks = 8
	}
	if c.Game.ActionTimeout == "" {
		c.Game.ActionTimeout = "60s"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverJSON
	}
	if c.Storage.Path == "" {
		if c.Storage.Driver == DriverSQLite {
			c.Storage.Path = "user_data.db"
		} else {
			c.Storage.Path = "user_data.json"
		}
	}

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Bot.Nick == "" {
		return fmt.Errorf("bot nick is required")
	}
	if strings.ContainsAny(c.Bot.Prefix, " \t\n") {
		return fmt.Errorf("invalid command prefix %q", c.Bot.Prefix)
	}

	if c.Game.StartingBalance <= 0 {
		return fmt.Errorf("starting balance must be positive: %d", c.Game.StartingBalance)
	}
	if c.Game.Decks < 1 {
		return fmt.Errorf("decks must be at least 1: %d", c.Game.Decks)
	}
	if _, err := c.Game.Timeout(); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case DriverJSON, DriverSQLite:
	default:
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	return nil
}

// Timeout parses the action timeout
func (g GameConfig) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(g.ActionTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid action timeout %q: %w", g.ActionTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("action timeout must be positive: %s", d)
	}
	return d, nil
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
