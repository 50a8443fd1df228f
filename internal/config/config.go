package config

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort string `mapstructure:"server_port"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	LogJSON bool `mapstructure:"log_json"`

	// Per (channel, sender) token bucket for posted messages.
	MessageRatePerSecond float64 `mapstructure:"message_rate_per_second"`
	MessageRateBurst     int     `mapstructure:"message_rate_burst"`
	// Buckets unused for this long are dropped.
	MessageRateIdle time.Duration `mapstructure:"message_rate_idle"`
}

// DSN builds the postgres connection string understood by both pgxpool and the pgx stdlib driver.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "minilid")
	v.SetDefault("db_password", "minilid_dev_password")
	v.SetDefault("db_name", "minilid")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("log_json", false)
	v.SetDefault("message_rate_per_second", 2.0)
	v.SetDefault("message_rate_burst", 5)
	v.SetDefault("message_rate_idle", 10*time.Minute)
}

// Load reads defaults, an optional config file and the environment, in that order of precedence.
// Environment keys are the upper-cased field keys (SERVER_PORT, DB_HOST, JWT_SECRET, ...).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	return LoadWithViper(v)
}

func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}
