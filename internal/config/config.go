package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds every tunable of the simulator server and the paying client.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Poller PollerConfig `mapstructure:"poller"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`

	// DatabasePath selects SQLite storage. Empty keeps everything in memory.
	DatabasePath string `mapstructure:"database_path"`

	CheckoutBaseURL string `mapstructure:"checkout_base_url"`
	ReceiptBaseURL  string `mapstructure:"receipt_base_url"`

	// SettleDelay is how long the simulated processor takes to decide.
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	ApprovalRate float64       `mapstructure:"approval_rate"`

	DispatchInterval  time.Duration `mapstructure:"dispatch_interval"`
	DispatchBatchSize int           `mapstructure:"dispatch_batch_size"`
}

type ClientConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Deadline time.Duration `mapstructure:"deadline"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			CheckoutBaseURL:   "http://localhost:8080/checkout",
			ReceiptBaseURL:    "http://localhost:8080/receipts",
			SettleDelay:       8 * time.Second,
			ApprovalRate:      0.7,
			DispatchInterval:  500 * time.Millisecond,
			DispatchBatchSize: 50,
		},
		Client: ClientConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 5 * time.Second,
		},
		Poller: PollerConfig{
			Interval: 3 * time.Second,
			Deadline: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ApprovalRate < 0 || c.Server.ApprovalRate > 1 {
		errs = append(errs, fmt.Errorf("server.approval_rate must be within [0,1], got %v", c.Server.ApprovalRate))
	}
	if c.Server.DispatchInterval <= 0 {
		errs = append(errs, errors.New("server.dispatch_interval must be positive"))
	}
	if c.Server.DispatchBatchSize <= 0 {
		errs = append(errs, errors.New("server.dispatch_batch_size must be positive"))
	}
	if c.Client.BaseURL == "" {
		errs = append(errs, errors.New("client.base_url is required"))
	}
	if c.Poller.Interval <= 0 {
		errs = append(errs, errors.New("poller.interval must be positive"))
	}
	if c.Poller.Deadline <= 0 {
		errs = append(errs, errors.New("poller.deadline must be positive"))
	}

	return errors.Join(errs...)
}
