// Package config loads the process-wide defaults every node, service,
// publish-subscribe endpoint, and event endpoint falls back to absent
// an explicit override, from environment variables and an optional
// .env file. Grounded on adred-codev-ws_poc/ws/config.go's
// env-tags-plus-validation shape.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every key spec.md §6 "External interfaces / Config
// keys" names, grouped the way that section groups them.
type Config struct {
	// global.*
	RootPath   string `env:"ICEORYX2_ROOT_PATH" envDefault:"/tmp/iceoryx2"`
	Prefix     string `env:"ICEORYX2_PREFIX" envDefault:"iox2"`

	NodeDirectory               string `env:"ICEORYX2_NODE_DIRECTORY" envDefault:"nodes"`
	CleanupDeadNodesOnCreation  bool   `env:"ICEORYX2_CLEANUP_DEAD_NODES_ON_CREATION" envDefault:"true"`
	CleanupDeadNodesOnDestruction bool `env:"ICEORYX2_CLEANUP_DEAD_NODES_ON_DESTRUCTION" envDefault:"true"`

	ServiceDirectory     string        `env:"ICEORYX2_SERVICE_DIRECTORY" envDefault:"services"`
	ServiceCreationTimeout time.Duration `env:"ICEORYX2_SERVICE_CREATION_TIMEOUT" envDefault:"1s"`

	// defaults.publish_subscribe.*
	MaxSubscribers                 uint32 `env:"ICEORYX2_PS_MAX_SUBSCRIBERS" envDefault:"16"`
	MaxPublishers                  uint32 `env:"ICEORYX2_PS_MAX_PUBLISHERS" envDefault:"16"`
	SubscriberMaxBufferSize        uint32 `env:"ICEORYX2_PS_SUBSCRIBER_MAX_BUFFER_SIZE" envDefault:"32"`
	SubscriberMaxBorrowedSamples   uint32 `env:"ICEORYX2_PS_SUBSCRIBER_MAX_BORROWED_SAMPLES" envDefault:"8"`
	PublisherMaxLoanedSamples      uint32 `env:"ICEORYX2_PS_PUBLISHER_MAX_LOANED_SAMPLES" envDefault:"8"`
	PublisherHistorySize           uint32 `env:"ICEORYX2_PS_PUBLISHER_HISTORY_SIZE" envDefault:"0"`
	EnableSafeOverflow              bool   `env:"ICEORYX2_PS_ENABLE_SAFE_OVERFLOW" envDefault:"true"`
	UnableToDeliverStrategy        string `env:"ICEORYX2_PS_UNABLE_TO_DELIVER_STRATEGY" envDefault:"discard_oldest"`
	SubscriberExpiredConnectionBuf uint32 `env:"ICEORYX2_PS_SUBSCRIBER_EXPIRED_CONNECTION_BUFFER" envDefault:"4"`

	// defaults.event.*
	MaxListeners   uint32 `env:"ICEORYX2_EVENT_MAX_LISTENERS" envDefault:"16"`
	MaxNotifiers   uint32 `env:"ICEORYX2_EVENT_MAX_NOTIFIERS" envDefault:"16"`
	EventIDMaxValue uint64 `env:"ICEORYX2_EVENT_ID_MAX_VALUE" envDefault:"4294967295"`

	// Logging
	LogLevel  string `env:"ICEORYX2_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"ICEORYX2_LOG_FORMAT" envDefault:"json"`
}

// Load reads .env (if present, ignored if not) then environment
// variables into a Config, applying defaults and validating the
// result. logger may be nil.
func Load(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Info().Msg("no .env file found, using environment variables only")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("iceoryx2: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("iceoryx2: validate config: %w", err)
	}
	if logger != nil {
		logger.Info().Str("root_path", cfg.RootPath).Msg("configuration loaded")
	}
	return cfg, nil
}

// Validate checks range and enum constraints that env.Parse's type
// coercion cannot express on its own.
func (c *Config) Validate() error {
	if c.RootPath == "" {
		return fmt.Errorf("ICEORYX2_ROOT_PATH must not be empty")
	}
	if c.MaxSubscribers == 0 || c.MaxPublishers == 0 {
		return fmt.Errorf("max publisher/subscriber counts must be > 0")
	}
	if c.SubscriberMaxBufferSize == 0 {
		return fmt.Errorf("ICEORYX2_PS_SUBSCRIBER_MAX_BUFFER_SIZE must be > 0")
	}
	switch c.UnableToDeliverStrategy {
	case "block", "discard_oldest", "discard_newest":
	default:
		return fmt.Errorf("ICEORYX2_PS_UNABLE_TO_DELIVER_STRATEGY must be one of block|discard_oldest|discard_newest, got %q", c.UnableToDeliverStrategy)
	}
	return nil
}
