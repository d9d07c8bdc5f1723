package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	Auth   AuthConfig   `mapstructure:"auth"`
	Access AccessConfig `mapstructure:"access"`
}

type AuthConfig struct {
	// ServiceSecret signs service bearer tokens. Empty disables auth.
	ServiceSecret string `mapstructure:"service_secret"`
	Issuer        string `mapstructure:"issuer"`
}

type AccessConfig struct {
	LegacyOpenRooms bool          `mapstructure:"legacy_open_rooms"`
	ElevatedRoles   []string      `mapstructure:"elevated_roles"`
	SecretAttempts  int           `mapstructure:"secret_attempts"`
	SecretWindow    time.Duration `mapstructure:"secret_window"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")

	v.SetDefault("auth.service_secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("access.legacy_open_rooms", true)
	v.SetDefault("access.elevated_roles", []string{"owner", "admin"})
	v.SetDefault("access.secret_attempts", 5)
	v.SetDefault("access.secret_window", "1m")
	v.SetDefault("access.bcrypt_cost", 10)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("COORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Bool("service_auth", cfg.Auth.ServiceSecret != "").
		Bool("legacy_open_rooms", cfg.Access.LegacyOpenRooms).
		Msg("config ready")
	return &cfg, nil
}
