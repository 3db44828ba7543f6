package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "IPSIM"

// Load layers defaults, an optional YAML file and IPSIM_* environment
// variables (IPSIM_POLLER_INTERVAL=5s overrides poller.interval).
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during
// Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.database_path", cfg.Server.DatabasePath)
	v.SetDefault("server.checkout_base_url", cfg.Server.CheckoutBaseURL)
	v.SetDefault("server.receipt_base_url", cfg.Server.ReceiptBaseURL)
	v.SetDefault("server.settle_delay", cfg.Server.SettleDelay)
	v.SetDefault("server.approval_rate", cfg.Server.ApprovalRate)
	v.SetDefault("server.dispatch_interval", cfg.Server.DispatchInterval)
	v.SetDefault("server.dispatch_batch_size", cfg.Server.DispatchBatchSize)

	v.SetDefault("client.base_url", cfg.Client.BaseURL)
	v.SetDefault("client.request_timeout", cfg.Client.RequestTimeout)

	v.SetDefault("poller.interval", cfg.Poller.Interval)
	v.SetDefault("poller.deadline", cfg.Poller.Deadline)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.development", cfg.Log.Development)
}
