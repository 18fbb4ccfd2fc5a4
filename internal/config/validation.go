package config

import (
	"fmt"
	"net"

	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/logging"
	"github.com/LeJamon/goAMM/internal/storage"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Storage.Validate(); err != nil {
		return fmt.Errorf("storage validation failed: %w", err)
	}
	if err := config.AMM.Validate(); err != nil {
		return fmt.Errorf("amm validation failed: %w", err)
	}
	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	if err := config.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}
	if config.Chain.MaxCallDepth < 1 {
		return fmt.Errorf("chain validation failed: max_call_depth must be positive, got %d", config.Chain.MaxCallDepth)
	}
	return nil
}

// Validate performs validation on the storage configuration
func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case storage.BackendMemory:
		return nil
	case storage.BackendPebble, storage.BackendBBolt, storage.BackendLevelDB:
	default:
		return fmt.Errorf("invalid storage backend: %q (valid options: memory, pebble, bbolt, leveldb)", s.Backend)
	}
	if s.Path == "" {
		return fmt.Errorf("storage path is required for the %s backend", s.Backend)
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", s.CacheSize)
	}
	return nil
}

// Validate performs validation on the AMM parameters
func (a *AMMConfig) Validate() error {
	if err := amm.ValidateFee(a.DefaultFee); err != nil {
		return fmt.Errorf("default_fee must be below %d, got %d", amm.FEE_DENOMINATOR, a.DefaultFee)
	}
	if err := a.Share().Validate(); err != nil {
		return fmt.Errorf("protocol share %d/%d must be a fraction no greater than 1", a.ProtocolShareNum, a.ProtocolShareDen)
	}
	if _, err := a.PoolFlavor(); err != nil {
		return err
	}
	return nil
}

// Validate performs validation on the metrics configuration
func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Listen); err != nil {
		return fmt.Errorf("invalid metrics listen address %q: %w", m.Listen, err)
	}
	return nil
}
