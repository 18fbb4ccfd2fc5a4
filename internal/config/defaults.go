package config

import (
	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/spf13/viper"
)

// setDefaults sets every default value
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.cache_size", 4096)

	// AMM defaults
	v.SetDefault("amm.default_fee", amm.DEFAULT_FEE_AMOUNT_PER_1000)
	v.SetDefault("amm.protocol_share_num", amm.DEFAULT_PROTOCOL_SHARE_NUM)
	v.SetDefault("amm.protocol_share_den", amm.DEFAULT_PROTOCOL_SHARE_DEN)
	v.SetDefault("amm.flavor", "plain")

	v.SetDefault("log.level", "info")

	// Metrics are off unless asked for
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "127.0.0.1:9464")

	v.SetDefault("chain.start_height", 1)
	v.SetDefault("chain.max_call_depth", runtime.DefaultMaxDepth)
}
