package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/flightontime/flight-ai-go/internal/decision"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Artifact    ArtifactConfig `mapstructure:"artifact"`
	Weather     WeatherConfig  `mapstructure:"weather"`
	Decision    DecisionConfig `mapstructure:"decision"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type ArtifactConfig struct {
	Path string `mapstructure:"path"`
}

type WeatherConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	Timezone        string `mapstructure:"timezone"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
}

// DecisionConfig overrides the risk-tier boundaries. A zero low threshold
// means "use the threshold persisted in the artifact metadata".
type DecisionConfig struct {
	LowThreshold  float64 `mapstructure:"low_threshold"`
	HighThreshold float64 `mapstructure:"high_threshold"`
}

// DatabaseConfig configures the optional prediction history store.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// RedisConfig configures the optional weather forecast cache.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Artifact.Path == "" {
		return fmt.Errorf("artifact path must not be empty")
	}
	if c.Weather.TimeoutSeconds <= 0 {
		return fmt.Errorf("weather timeout must be positive, got %d", c.Weather.TimeoutSeconds)
	}
	if c.Decision.HighThreshold <= 0 || c.Decision.HighThreshold > 1 {
		return fmt.Errorf("decision high threshold must be in (0,1], got %f", c.Decision.HighThreshold)
	}
	if c.Decision.LowThreshold < 0 || c.Decision.LowThreshold >= 1 {
		return fmt.Errorf("decision low threshold must be in [0,1), got %f", c.Decision.LowThreshold)
	}
	if c.Decision.LowThreshold > 0 && c.Decision.LowThreshold >= c.Decision.HighThreshold {
		return fmt.Errorf("decision low threshold %f must be below high threshold %f",
			c.Decision.LowThreshold, c.Decision.HighThreshold)
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when the prediction store is enabled")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8000)

	viper.SetDefault("artifact.path", "artifacts/flight_classifier.json")

	viper.SetDefault("weather.base_url", "https://api.open-meteo.com")
	viper.SetDefault("weather.timeout_seconds", 3)
	viper.SetDefault("weather.timezone", "America/Sao_Paulo")
	viper.SetDefault("weather.cache_ttl_minutes", 60)

	viper.SetDefault("decision.low_threshold", 0.0)
	viper.SetDefault("decision.high_threshold", decision.DefaultHigh)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.url", "")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
}
