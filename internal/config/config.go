package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	StaticPath      string        `mapstructure:"static_path"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	Secret          string        `mapstructure:"secret"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SlowConsumer    string        `mapstructure:"slow_consumer"`
	ICEServers      []string      `mapstructure:"ice_servers"`

	Relay RelayConfig `mapstructure:"relay"`
	Chat  ChatConfig  `mapstructure:"chat"`
	Auth  AuthConfig  `mapstructure:"auth"`
	Sink  SinkConfig  `mapstructure:"sink"`
}

type RelayConfig struct {
	NotifyUnknownTarget bool `mapstructure:"notify_unknown_target"`
	ValidatePayloads    bool `mapstructure:"validate_payloads"`
}

type ChatConfig struct {
	MaxLength    int           `mapstructure:"max_length"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
}

// AuthConfig enables the JWT identity verifier when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SinkConfig enables the badger durability store when Path is set.
type SinkConfig struct {
	Path      string `mapstructure:"path"`
	QueueSize int    `mapstructure:"queue_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("slow_consumer", "drop")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})

	v.SetDefault("relay.notify_unknown_target", true)
	v.SetDefault("relay.validate_payloads", false)
	v.SetDefault("chat.max_length", 2000)
	v.SetDefault("chat.rate_limit", 10)
	v.SetDefault("chat.rate_interval", "10s")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.timeout", "5s")
	v.SetDefault("sink.path", "")
	v.SetDefault("sink.queue_size", 1024)
}

// Load reads config/config.{CONFIG_ENV}.yaml (env "dev" by default). A missing
// file is not an error; defaults and HUDDLE_* variables still apply.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("HUDDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Bool("sink", cfg.Sink.Path != "").
		Bool("auth", cfg.Auth.JWTSecret != "").
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SlowConsumer != "drop" && c.SlowConsumer != "kick" {
		return fmt.Errorf("slow_consumer must be drop or kick, got %q", c.SlowConsumer)
	}
	return nil
}
