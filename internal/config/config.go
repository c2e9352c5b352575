// Package config loads vaultfs settings from a TOML file, the environment
// and command line flags via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Format selects the on-disk snapshot container.
const (
	FormatV2     = "v2"     // argon2id key derivation, random salt and nonce
	FormatLegacy = "legacy" // fixed nonce and weak derivation, old snapshots only
)

type Config struct {
	Snapshot snapshotConfig `toml:"snapshot" mapstructure:"snapshot"`
	Log      logConfig      `toml:"log" mapstructure:"log"`
	Shell    shellConfig    `toml:"shell" mapstructure:"shell"`
	Argon2   argon2Config   `toml:"argon2" mapstructure:"argon2"`
}

type snapshotConfig struct {
	Path        string `toml:"path" mapstructure:"path"`
	Format      string `toml:"format" mapstructure:"format"`
	BackupCount int    `toml:"backup_count" mapstructure:"backup_count"`
}

type logConfig struct {
	Level string `toml:"level" mapstructure:"level"`
}

type shellConfig struct {
	HistorySize int  `toml:"history_size" mapstructure:"history_size"`
	Splash      bool `toml:"splash" mapstructure:"splash"`
}

type argon2Config struct {
	Time    uint32 `toml:"time" mapstructure:"time"`
	Memory  uint32 `toml:"memory" mapstructure:"memory"`
	Threads uint8  `toml:"threads" mapstructure:"threads"`
}

// Cfg is the process-wide configuration, populated by Init.
var Cfg *Config

// Init reads the configuration. A missing file is not an error; defaults
// and environment variables (VAULTFS_*) still apply.
func Init(path string) error {
	v := viper.GetViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vaultfs")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/vaultfs")
	}
	v.SetEnvPrefix("VAULTFS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("snapshot.path", "vault.bin")
	v.SetDefault("snapshot.format", FormatV2)
	v.SetDefault("snapshot.backup_count", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("shell.history_size", 500)
	v.SetDefault("shell.splash", true)
	v.SetDefault("argon2.time", 3)
	v.SetDefault("argon2.memory", 64*1024)
	v.SetDefault("argon2.threads", 4)

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return fmt.Errorf("reading config: %w", err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshalling config: %w", err)
	}
	if cfg.Snapshot.Format != FormatV2 && cfg.Snapshot.Format != FormatLegacy {
		return fmt.Errorf("unknown snapshot format %q", cfg.Snapshot.Format)
	}

	Cfg = cfg
	return nil
}
