package config

import (
	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/pool"
)

// Config represents the complete ammd configuration
type Config struct {
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`
	AMM     AMMConfig     `toml:"amm" mapstructure:"amm"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`
	Chain   ChainConfig   `toml:"chain" mapstructure:"chain"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// StorageConfig represents the [storage] section
type StorageConfig struct {
	// Backend is one of memory, pebble, bbolt or leveldb.
	Backend string `toml:"backend" mapstructure:"backend"`
	Path    string `toml:"path" mapstructure:"path"`
	// CacheSize is the number of entries kept by the read cache; 0 disables it.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// AMMConfig represents the [amm] section: the parameters given to
// factories deployed by the daemon.
type AMMConfig struct {
	// DefaultFee is the total swap fee per 1000.
	DefaultFee       uint64 `toml:"default_fee" mapstructure:"default_fee"`
	ProtocolShareNum uint64 `toml:"protocol_share_num" mapstructure:"protocol_share_num"`
	ProtocolShareDen uint64 `toml:"protocol_share_den" mapstructure:"protocol_share_den"`
	Flavor           string `toml:"flavor" mapstructure:"flavor"`
}

// LogConfig represents the [log] section
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
}

// MetricsConfig represents the [metrics] section
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

// ChainConfig represents the [chain] section
type ChainConfig struct {
	// StartHeight is the height reported before any block is advanced.
	StartHeight  uint64 `toml:"start_height" mapstructure:"start_height"`
	MaxCallDepth int    `toml:"max_call_depth" mapstructure:"max_call_depth"`
}

// GetConfigPath returns the path of the file the config was read from, or ""
// when only defaults and the environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Share returns the configured protocol share.
func (a AMMConfig) Share() amm.ProtocolShare {
	return amm.ProtocolShare{Num: a.ProtocolShareNum, Den: a.ProtocolShareDen}
}

// PoolFlavor returns the configured pool flavor.
func (a AMMConfig) PoolFlavor() (pool.Flavor, error) {
	return pool.FlavorByName(a.Flavor)
}
